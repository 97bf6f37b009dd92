package bdl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize(t *testing.T) {
	toks, err := Tokenize("\"A b\" = SPACE $ comment\n  V1 = ( 1.5, -2 )\n  ..")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{
		STRING, EQUALS, WORD, NEWLINE,
		WORD, EQUALS, LPAREN, WORD, COMMA, WORD, RPAREN, NEWLINE,
		TERMINATOR, EOF,
	}, kinds(toks))
	assert.Equal(t, "A b", toks[0].Text)
	assert.Equal(t, "1.5", toks[7].Text)
	assert.Equal(t, Position{Line: 2, Column: 3, Offset: 26}, toks[4].Pos)
}

func TestTokenizeWordBeforeTerminator(t *testing.T) {
	toks, err := Tokenize("X = 0.5..")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{WORD, EQUALS, WORD, TERMINATOR, EOF}, kinds(toks))
	assert.Equal(t, "0.5", toks[2].Text)
}

func TestTokenizeSkipsLoneQuoteLine(t *testing.T) {
	toks, err := Tokenize("A\n  \"\nB")
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{WORD, NEWLINE, NEWLINE, WORD, EOF}, kinds(toks))
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := Tokenize("NAME = \"abc\nX = 1")
	var mal *MalformedBlockError
	require.True(t, errors.As(err, &mal))
	assert.Equal(t, 1, mal.Pos.Line)
	assert.Equal(t, 8, mal.Pos.Column)
}

func TestTokenizeQuotedDelimiters(t *testing.T) {
	toks, err := Tokenize(`N = "a = (b, c) $ d"`)
	require.NoError(t, err)
	require.Equal(t, STRING, toks[2].Kind)
	assert.Equal(t, "a = (b, c) $ d", toks[2].Text)
}
