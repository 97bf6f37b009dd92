package bdl

import "fmt"

// Position is a location in the source text. Line and Column are
// 1-based; Offset is a 0-based byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// MalformedBlockError reports a syntax error in the block text.
type MalformedBlockError struct {
	Pos Position
	Msg string
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("malformed block at %s (offset %d): %s", e.Pos, e.Pos.Offset, e.Msg)
}

// MissingAttributeError reports that a mandatory attribute of a block is
// absent.
type MissingAttributeError struct {
	Block string
	Type  string
	Attr  string
	Pos   Position
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("%s %q at %s: missing attribute %s", e.Type, e.Block, e.Pos, e.Attr)
}

// InvalidNumberError reports an attribute value that is not a number in
// the fixed decimal-point notation of the format.
type InvalidNumberError struct {
	Block string
	Attr  string
	Text  string
	Pos   Position
	Err   error
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("%q at %s: attribute %s: invalid number %q", e.Block, e.Pos, e.Attr, e.Text)
}

func (e *InvalidNumberError) Unwrap() error { return e.Err }

// DegenerateGeometryError reports a polygon that cannot describe a
// surface, such as one with fewer than three vertices.
type DegenerateGeometryError struct {
	Block string
	Type  string
	Msg   string
	Pos   Position
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("%s %q at %s: degenerate geometry: %s", e.Type, e.Block, e.Pos, e.Msg)
}

// InvalidValueError reports an attribute value outside the set the format
// allows, such as an unknown LOCATION or a schedule with the wrong number
// of values.
type InvalidValueError struct {
	Block string
	Attr  string
	Text  string
	Msg   string
	Pos   Position
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%q at %s: attribute %s: invalid value %q: %s", e.Block, e.Pos, e.Attr, e.Text, e.Msg)
}
