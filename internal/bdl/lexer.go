package bdl

import "fmt"

// TokenKind classifies lexical tokens.
type TokenKind int

const (
	EOF TokenKind = iota
	NEWLINE
	WORD
	STRING
	EQUALS
	LPAREN
	RPAREN
	COMMA
	TERMINATOR // ".."
)

var tokenNames = [...]string{
	EOF:        "end of input",
	NEWLINE:    "newline",
	WORD:       "word",
	STRING:     "string",
	EQUALS:     "'='",
	LPAREN:     "'('",
	RPAREN:     "')'",
	COMMA:      "','",
	TERMINATOR: "'..'",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// A Token is a lexical token. For STRING tokens, Text holds the contents
// without the quotes.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Position
}

// Lexer splits block text into tokens.
//
// Comments run from '$' to the end of the line. A line holding nothing
// but a lone '"' is an artifact of the exporting tool and is skipped.
type Lexer struct {
	input     string
	pos       int  // offset of ch
	readPos   int  // offset of the next byte
	ch        byte // current byte, 0 at EOF
	line      int
	column    int
	lineStart int // offset of the first byte of the current line
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
		l.lineStart = l.readPos
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool { return l.pos >= len(l.input) }

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.pos}
}

// Next returns the next token. At the end of the input it returns an EOF
// token forever.
func (l *Lexer) Next() (Token, error) {
	for {
		l.skipBlanks()
		pos := l.position()
		if l.atEOF() {
			return Token{Kind: EOF, Pos: pos}, nil
		}
		switch ch := l.ch; {
		case ch == '\n':
			l.readChar()
			return Token{Kind: NEWLINE, Text: "\n", Pos: pos}, nil
		case ch == '=':
			l.readChar()
			return Token{Kind: EQUALS, Text: "=", Pos: pos}, nil
		case ch == '(':
			l.readChar()
			return Token{Kind: LPAREN, Text: "(", Pos: pos}, nil
		case ch == ')':
			l.readChar()
			return Token{Kind: RPAREN, Text: ")", Pos: pos}, nil
		case ch == ',':
			l.readChar()
			return Token{Kind: COMMA, Text: ",", Pos: pos}, nil
		case ch == '.' && l.peekChar() == '.':
			l.readChar()
			l.readChar()
			return Token{Kind: TERMINATOR, Text: "..", Pos: pos}, nil
		case ch == '"':
			tok, skipped, err := l.readString(pos)
			if err != nil {
				return Token{}, err
			}
			if skipped {
				continue
			}
			return tok, nil
		default:
			return Token{Kind: WORD, Text: l.readWord(), Pos: pos}, nil
		}
	}
}

// Tokenize lexes all of input.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) skipBlanks() {
	for !l.atEOF() {
		switch l.ch {
		case ' ', '\t', '\r', '\f', '\v':
			l.readChar()
		case '$':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readString reads a quoted string starting at the opening quote. Strings
// may contain the delimiter characters of the format but not newlines.
func (l *Lexer) readString(pos Position) (tok Token, skipped bool, err error) {
	start := l.pos + 1
	end := start
	for end < len(l.input) && l.input[end] != '"' && l.input[end] != '\n' {
		end++
	}
	if end < len(l.input) && l.input[end] == '"' {
		for l.pos <= end {
			l.readChar()
		}
		return Token{Kind: STRING, Text: l.input[start:end], Pos: pos}, false, nil
	}

	// Unterminated. Tolerate a line that holds nothing but the quote.
	if isBlank(l.input[l.lineStart:l.pos]) && isBlank(l.input[start:end]) {
		for !l.atEOF() && l.ch != '\n' {
			l.readChar()
		}
		return Token{}, true, nil
	}
	return Token{}, false, &MalformedBlockError{Pos: pos, Msg: "unterminated string"}
}

func (l *Lexer) readWord() string {
	start := l.pos
	for !l.atEOF() && isWordChar(l.ch) {
		if l.ch == '.' && l.peekChar() == '.' {
			break
		}
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isWordChar(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '\f', '\v', '=', '(', ')', ',', '"', '$':
		return false
	}
	return true
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}
