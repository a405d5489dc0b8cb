package scanner_test

import (
	"testing"

	"github.com/kristofer/smog/pkg/scanner"
	"github.com/kristofer/smog/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(src string) []token.Token {
	s := scanner.New(src)
	var toks []token.Token
	for {
		tok := s.NextToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuatorsAndOperators(t *testing.T) {
	toks := scanAll("(){};,.-+/*!= == <= >= < >")
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []token.Kind{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.SEMICOLON, token.COMMA, token.DOT, token.MINUS, token.PLUS,
		token.SLASH, token.STAR, token.BANG_EQUAL, token.EQUAL_EQUAL,
		token.LESS_EQUAL, token.GREATER_EQUAL, token.LESS, token.GREATER, token.EOF,
	}, kinds)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("class fun forest")
	require.Len(t, toks, 4)
	assert.Equal(t, token.CLASS, toks[0].Kind)
	assert.Equal(t, token.FUN, toks[1].Kind)
	assert.Equal(t, token.IDENTIFIER, toks[2].Kind)
	assert.Equal(t, "forest", toks[2].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll("123 3.14")
	require.Len(t, toks, 3)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, "3.14", toks[1].Lexeme)
}

func TestScanStrings(t *testing.T) {
	toks := scanAll(`"hello world"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"hello`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ERROR, toks[0].Kind)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll("1\n2\n\n3")
	require.Len(t, toks, 4)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 4, toks[2].Line)
}

func TestScanComments(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, "2", toks[1].Lexeme)
}

func TestScanNegativeNumberIsTwoTokens(t *testing.T) {
	// Unlike smalltalk-style lexers, smog treats '-' as an operator: the
	// compiler's unary-minus prefix rule is what negates numeric literals.
	toks := scanAll("-5")
	require.Len(t, toks, 3)
	assert.Equal(t, token.MINUS, toks[0].Kind)
	assert.Equal(t, token.NUMBER, toks[1].Kind)
}
