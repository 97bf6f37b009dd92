package bdl

import (
	"fmt"
	"strings"
)

// A Value is an attribute or positional argument value: a bare word, a
// quoted string or a parenthesized list. Nested lists are flattened.
type Value struct {
	Text   string
	Quoted bool
	IsList bool
	List   []Value
	Pos    Position
}

func (v Value) String() string {
	if !v.IsList {
		if v.Quoted {
			return `"` + v.Text + `"`
		}
		return v.Text
	}
	parts := make([]string, len(v.List))
	for i, item := range v.List {
		parts[i] = item.String()
	}
	return "( " + strings.Join(parts, ", ") + " )"
}

// An Attr is a single KEY = value pair.
type Attr struct {
	Key   string
	Value Value
	Pos   Position
}

// A Block is a syntactic unit of the format:
//
//	"name" = TYPE  positional...
//	    KEY = value
//	    ..
//
// Unnamed blocks omit the `"name" =` part.
type Block struct {
	Name     string
	Type     string
	Args     []Value
	Attrs    []Attr
	Parent   *Block
	Children []*Block
	Pos      Position
}

// Attr returns the last attribute named key. Later definitions override
// earlier ones.
func (b *Block) Attr(key string) (Attr, bool) {
	for i := len(b.Attrs) - 1; i >= 0; i-- {
		if b.Attrs[i].Key == key {
			return b.Attrs[i], true
		}
	}
	return Attr{}, false
}

func (b *Block) Has(key string) bool {
	_, ok := b.Attr(key)
	return ok
}

// ParentName returns the name of the enclosing block, or "".
func (b *Block) ParentName() string {
	if b.Parent == nil {
		return ""
	}
	return b.Parent.Name
}

// Label identifies b in messages.
func (b *Block) Label() string {
	if b.Name == "" {
		return b.Type
	}
	return b.Name
}

// A Document is a parsed block file.
type Document struct {
	// Preamble is the tool-specific text preceding the GENERAL-DATA
	// block, kept verbatim.
	Preamble string

	// Blocks lists every block in source order.
	Blocks []*Block

	// Roots lists the blocks that have no parent, in source order.
	Roots []*Block
}

// Parse reads the block text src into a Document. It performs no semantic
// validation.
//
// Blocks are nested by their position in the text: a SPACE belongs to the
// preceding FLOOR, walls belong to the preceding SPACE, and windows and
// doors belong to the preceding wall.
func Parse(src string) (*Document, error) {
	body, preamble := sanitize(src)
	toks, err := Tokenize(body)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	doc := &Document{Preamble: preamble}
	var nest nesting
	for {
		p.skipNewlines()
		if p.peek().Kind == EOF {
			break
		}
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		nest.place(b)
		doc.Blocks = append(doc.Blocks, b)
		if b.Parent == nil {
			doc.Roots = append(doc.Roots, b)
		}
	}
	return doc, nil
}

// nesting tracks the innermost open container of each level.
type nesting struct {
	floor, space, wall *Block
}

func (n *nesting) place(b *Block) {
	adopt := func(parent *Block) {
		if parent != nil {
			b.Parent = parent
			parent.Children = append(parent.Children, b)
		}
	}
	switch b.Type {
	case "FLOOR":
		n.floor, n.space, n.wall = b, nil, nil
	case "SPACE":
		adopt(n.floor)
		n.space, n.wall = b, nil
	case "EXTERIOR-WALL", "INTERIOR-WALL", "UNDERGROUND-WALL", "UNDERGROUND-FLOOR", "ROOF":
		adopt(n.space)
		n.wall = b
	case "WINDOW", "DOOR":
		adopt(n.wall)
	}
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	tok := p.toks[p.pos]
	if tok.Kind != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) skipNewlines() {
	for p.peek().Kind == NEWLINE {
		p.next()
	}
}

func (p *parser) errorf(pos Position, format string, args ...any) error {
	return &MalformedBlockError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseBlock() (*Block, error) {
	start := p.peek()
	b := &Block{Pos: start.Pos}
	if start.Kind == STRING && p.peekAt(1).Kind == EQUALS {
		b.Name = start.Text
		p.next()
		p.next()
	}
	typ := p.next()
	if typ.Kind != WORD {
		return nil, p.errorf(typ.Pos, "expected block type, found %s", typ.Kind)
	}
	b.Type = typ.Text

	seenAttr := false
	for {
		tok := p.next()
		switch tok.Kind {
		case NEWLINE:
			continue
		case TERMINATOR:
			return b, nil
		case EOF:
			return nil, p.errorf(b.Pos, "block %s not terminated by '..'", b.Label())
		case STRING:
			if p.peek().Kind == EQUALS {
				return nil, p.errorf(tok.Pos, "block %s not terminated before block %q", b.Label(), tok.Text)
			}
			if seenAttr {
				return nil, p.errorf(tok.Pos, "positional argument %q after keyword attributes", tok.Text)
			}
			b.Args = append(b.Args, Value{Text: tok.Text, Quoted: true, Pos: tok.Pos})
		case WORD:
			if p.peek().Kind == EQUALS {
				p.next()
				val, err := p.parseValue(tok)
				if err != nil {
					return nil, err
				}
				b.Attrs = append(b.Attrs, Attr{Key: tok.Text, Value: val, Pos: tok.Pos})
				seenAttr = true
				continue
			}
			if seenAttr {
				return nil, p.errorf(tok.Pos, "positional argument %s after keyword attributes", tok.Text)
			}
			b.Args = append(b.Args, Value{Text: tok.Text, Pos: tok.Pos})
		case LPAREN:
			if seenAttr {
				return nil, p.errorf(tok.Pos, "positional list after keyword attributes")
			}
			list, err := p.parseList(tok)
			if err != nil {
				return nil, err
			}
			b.Args = append(b.Args, list)
		default:
			return nil, p.errorf(tok.Pos, "unexpected %s in block %s", tok.Kind, b.Label())
		}
	}
}

func (p *parser) parseValue(key Token) (Value, error) {
	p.skipNewlines()
	tok := p.next()
	switch tok.Kind {
	case WORD:
		return Value{Text: tok.Text, Pos: tok.Pos}, nil
	case STRING:
		return Value{Text: tok.Text, Quoted: true, Pos: tok.Pos}, nil
	case LPAREN:
		return p.parseList(tok)
	}
	return Value{}, p.errorf(tok.Pos, "missing value for attribute %s, found %s", key.Text, tok.Kind)
}

// parseList parses the rest of a list after its opening parenthesis.
func (p *parser) parseList(open Token) (Value, error) {
	list := Value{IsList: true, Pos: open.Pos}
	for {
		tok := p.next()
		switch tok.Kind {
		case RPAREN:
			return list, nil
		case COMMA, NEWLINE:
		case WORD:
			list.List = append(list.List, Value{Text: tok.Text, Pos: tok.Pos})
		case STRING:
			list.List = append(list.List, Value{Text: tok.Text, Quoted: true, Pos: tok.Pos})
		case LPAREN:
			inner, err := p.parseList(tok)
			if err != nil {
				return Value{}, err
			}
			list.List = append(list.List, inner.List...)
		default:
			return Value{}, p.errorf(open.Pos, "unterminated list, found %s", tok.Kind)
		}
	}
}
