package bdl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// attrReader reads typed attributes from a block. The first error sticks:
// once a read fails, later reads return zero values and err keeps the
// original failure.
type attrReader struct {
	b   *Block
	err error
}

func newAttrReader(b *Block) *attrReader { return &attrReader{b: b} }

func (r *attrReader) missing(key string) {
	if r.err == nil {
		r.err = &MissingAttributeError{Block: r.b.Label(), Type: r.b.Type, Attr: key, Pos: r.b.Pos}
	}
}

func (r *attrReader) invalid(key string, v Value, err error) {
	if r.err == nil {
		r.err = &InvalidNumberError{Block: r.b.Label(), Attr: key, Text: v.String(), Pos: v.Pos, Err: err}
	}
}

// parseNumber parses s in the fixed decimal-point notation of the
// format. Decimal commas are rejected.
func parseNumber(s string) (float64, error) {
	if strings.ContainsRune(s, ',') {
		return 0, fmt.Errorf("decimal comma in %q", s)
	}
	return strconv.ParseFloat(s, 64)
}

func (r *attrReader) invalidValue(key string, v Value, format string, args ...any) {
	if r.err == nil {
		r.err = &InvalidValueError{Block: r.b.Label(), Attr: key, Text: v.String(), Msg: fmt.Sprintf(format, args...), Pos: v.Pos}
	}
}

func (r *attrReader) number(key string, v Value) float64 {
	if v.IsList {
		r.invalid(key, v, fmt.Errorf("expected a number, found a list"))
		return 0
	}
	f, err := parseNumber(v.Text)
	if err != nil {
		r.invalid(key, v, err)
		return 0
	}
	return f
}

// done returns rec, or the first error seen while reading it.
func (r *attrReader) done(rec Record) (Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	return rec, nil
}

func (r *attrReader) has(key string) bool { return r.b.Has(key) }

func (r *attrReader) float(key string) float64 {
	a, ok := r.b.Attr(key)
	if !ok {
		r.missing(key)
		return 0
	}
	return r.number(key, a.Value)
}

func (r *attrReader) optFloat(key string, def float64) float64 {
	a, ok := r.b.Attr(key)
	if !ok {
		return def
	}
	return r.number(key, a.Value)
}

func (r *attrReader) floatPtr(key string) *float64 {
	a, ok := r.b.Attr(key)
	if !ok {
		return nil
	}
	f := r.number(key, a.Value)
	return &f
}

func (r *attrReader) str(key string) string {
	a, ok := r.b.Attr(key)
	if !ok {
		r.missing(key)
		return ""
	}
	return a.Value.Text
}

// attrValue returns the raw value of key for error reporting.
func (r *attrReader) attrValue(key string) Value {
	a, _ := r.b.Attr(key)
	return a.Value
}

func (r *attrReader) optStr(key, def string) string {
	a, ok := r.b.Attr(key)
	if !ok {
		return def
	}
	return a.Value.Text
}

// items returns the elements of a list attribute. A scalar value is
// treated as a one-element list.
func (r *attrReader) items(key string) ([]Value, bool) {
	a, ok := r.b.Attr(key)
	if !ok {
		r.missing(key)
		return nil, false
	}
	if !a.Value.IsList {
		return []Value{a.Value}, true
	}
	return a.Value.List, true
}

func (r *attrReader) floats(key string) []float64 {
	vs, ok := r.items(key)
	if !ok {
		return nil
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = r.number(key, v)
	}
	return out
}

func (r *attrReader) ints(key string) []int {
	fs := r.floats(key)
	out := make([]int, len(fs))
	for i, f := range fs {
		out[i] = int(f)
	}
	return out
}

func (r *attrReader) names(key string) []string {
	vs, ok := r.items(key)
	if !ok {
		return nil
	}
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Text
	}
	return out
}

// vertex reads a "( x, y )" or "( x, y, z )" point with n coordinates.
func (r *attrReader) vertex(key string, n int) ([]float64, bool) {
	a, ok := r.b.Attr(key)
	if !ok {
		return nil, false
	}
	if !a.Value.IsList || len(a.Value.List) != n {
		r.invalid(key, a.Value, fmt.Errorf("expected a point with %d coordinates", n))
		return nil, true
	}
	out := make([]float64, n)
	for i, v := range a.Value.List {
		out[i] = r.number(key, v)
	}
	return out, true
}

// vertices2 reads the V1, V2, ... attributes as 2D points.
func (r *attrReader) vertices2() []r2.Vec {
	var vs []r2.Vec
	for i := 1; ; i++ {
		c, ok := r.vertex(fmt.Sprintf("V%d", i), 2)
		if !ok || c == nil {
			return vs
		}
		vs = append(vs, r2.Vec{X: c[0], Y: c[1]})
	}
}

// vertices3 reads the V1, V2, ... attributes as 3D points.
func (r *attrReader) vertices3() [][3]float64 {
	var vs [][3]float64
	for i := 1; ; i++ {
		c, ok := r.vertex(fmt.Sprintf("V%d", i), 3)
		if !ok || c == nil {
			return vs
		}
		vs = append(vs, [3]float64{c[0], c[1], c[2]})
	}
}

// raw returns all attributes as text. Lists keep their parenthesized
// form.
func (r *attrReader) raw() map[string]string {
	m := make(map[string]string, len(r.b.Attrs))
	for _, a := range r.b.Attrs {
		if a.Value.IsList {
			m[a.Key] = a.Value.String()
		} else {
			m[a.Key] = a.Value.Text
		}
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
