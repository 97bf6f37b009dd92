package project

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aclements/envelope/internal/model"
)

// TblElementType is the element class code of a .tbl element.
type TblElementType int

const (
	TblWall      TblElementType = 0
	TblWindow    TblElementType = 1
	TblGround    TblElementType = -2
	TblAdiabatic TblElementType = -3
	TblInterior  TblElementType = -4
	TblShade     TblElementType = -5
)

// tblFieldCount is the number of fields of an element row.
const tblFieldCount = 10

// A TblElement is one element row of a NewBDL_O.tbl side table.
type TblElement struct {
	Name string
	// Area is in m².
	Area float64
	U    float64
	Type TblElementType
	// Azimuth is the angle to north and Tilt the angle to the
	// horizontal, in degrees.
	Azimuth, Tilt float64
	Surface       int
	Space         int
}

// A TblSpace is one space row of a NewBDL_O.tbl side table.
type TblSpace struct {
	Name       string
	ID         int
	Multiplier float64
	Area       float64
}

// A Tbl is the element and space summary the legacy tool writes next to
// the building file.
type Tbl struct {
	Elements []TblElement
	Spaces   []TblSpace
}

// SideAreas returns the areas of the table's walls, windows and spaces
// for cross-checking the derived geometry. Shades are not part of the
// envelope and are left out.
func (t *Tbl) SideAreas() *model.SideAreas {
	s := &model.SideAreas{
		Elements: make(map[string]float64),
		Spaces:   make(map[string]float64),
	}
	for _, e := range t.Elements {
		if e.Type == TblShade {
			continue
		}
		s.Elements[e.Name] = e.Area
	}
	for _, sp := range t.Spaces {
		s.Spaces[sp.Name] = sp.Area
	}
	return s
}

type tblReader struct {
	sc   *bufio.Scanner
	line int
}

func (r *tblReader) next() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("line %d: unexpected end of table", r.line+1)
	}
	r.line++
	return strings.TrimSpace(r.sc.Text()), nil
}

func (r *tblReader) fields(n int) ([]float64, error) {
	l, err := r.next()
	if err != nil {
		return nil, err
	}
	fs := strings.Fields(l)
	if len(fs) < n {
		return nil, fmt.Errorf("line %d: want %d fields, got %d", r.line, n, len(fs))
	}
	out := make([]float64, n)
	for i := range out {
		out[i], err = strconv.ParseFloat(fs[i], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: field %d: %w", r.line, i+1, err)
		}
	}
	return out, nil
}

func (r *tblReader) name() (string, error) {
	l, err := r.next()
	if err != nil {
		return "", err
	}
	return strings.Trim(l, `"`), nil
}

// ReadTbl parses a NewBDL_O.tbl side table. The text must already be
// decoded.
func ReadTbl(src io.Reader) (*Tbl, error) {
	r := &tblReader{sc: bufio.NewScanner(src)}
	wrap := func(err error) (*Tbl, error) { return nil, fmt.Errorf("reading tbl: %w", err) }

	// Two title lines.
	for range 2 {
		if _, err := r.next(); err != nil {
			return wrap(err)
		}
	}
	counts, err := r.fields(2)
	if err != nil {
		return wrap(err)
	}
	nElem, nSpace := int(counts[0]), int(counts[1])
	if nElem < 0 || nSpace < 0 {
		return wrap(fmt.Errorf("line %d: negative counts", r.line))
	}

	t := &Tbl{}
	for range nElem {
		name, err := r.name()
		if err != nil {
			return wrap(err)
		}
		f, err := r.fields(tblFieldCount)
		if err != nil {
			return wrap(err)
		}
		t.Elements = append(t.Elements, TblElement{
			Name:    name,
			Area:    f[0],
			U:       f[1],
			Azimuth: f[5],
			Tilt:    f[6],
			Type:    TblElementType(f[7]),
			Surface: int(f[8]),
			Space:   int(f[9]),
		})
	}
	for range nSpace {
		name, err := r.name()
		if err != nil {
			return wrap(err)
		}
		f, err := r.fields(4)
		if err != nil {
			return wrap(err)
		}
		t.Spaces = append(t.Spaces, TblSpace{
			Name:       name,
			ID:         int(f[0]),
			Multiplier: f[1],
			Area:       f[2],
		})
	}
	return t, nil
}
