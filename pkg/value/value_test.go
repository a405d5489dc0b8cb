package value_test

import (
	"testing"

	"github.com/kristofer/smog/pkg/value"
	"github.com/stretchr/testify/assert"
)

func TestTruthiness(t *testing.T) {
	assert.True(t, value.Nil.IsFalsey())
	assert.True(t, value.Bool(false).IsFalsey())
	assert.False(t, value.Bool(true).IsFalsey())
	assert.False(t, value.Number(0).IsFalsey(), "0 is truthy")
	assert.False(t, value.FromObj(value.NewObjString("")).IsFalsey(), "empty string is truthy")
}

func TestEqualByTagAndIdentity(t *testing.T) {
	assert.True(t, value.Equal(value.Nil, value.Nil))
	assert.True(t, value.Equal(value.Number(1), value.Number(1)))
	assert.False(t, value.Equal(value.Number(1), value.Bool(true)), "different kinds never equal")

	a := value.NewObjString("ab")
	b := value.NewObjString("ab")
	assert.False(t, value.Equal(value.FromObj(a), value.FromObj(b)), "distinct allocations, not interned, compare by identity")
	assert.True(t, value.Equal(value.FromObj(a), value.FromObj(a)))
}

func TestHashStringIsDeterministic(t *testing.T) {
	assert.Equal(t, value.HashString("abc"), value.HashString("abc"))
	assert.NotEqual(t, value.HashString("abc"), value.HashString("abd"))
}

func TestStringRepresentation(t *testing.T) {
	assert.Equal(t, "nil", value.Nil.String())
	assert.Equal(t, "true", value.Bool(true).String())
	assert.Equal(t, "3", value.Number(3).String())
	assert.Equal(t, "3.5", value.Number(3.5).String())
}
