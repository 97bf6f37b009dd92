// Package model links extracted records into a consistent building,
// derives its geometry and assembles the final envelope model.
package model

import (
	"fmt"

	"github.com/aclements/envelope/internal/bdl"
)

// DuplicateNameError reports two records of the same kind with the same
// name.
type DuplicateNameError struct {
	Kind          bdl.Kind
	Name          string
	First, Second bdl.Position
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s %q at %s (first defined at %s)", e.Kind, e.Name, e.Second, e.First)
}

// UnresolvedReferenceError reports a reference to a record that does not
// exist. Referrer names the record (or file) holding the reference.
type UnresolvedReferenceError struct {
	Kind     bdl.Kind
	Name     string
	Referrer string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference to %s %q from %q", e.Kind, e.Name, e.Referrer)
}

// An Index resolves records by kind and name.
type Index struct {
	recs   *bdl.Records
	byKind map[bdl.Kind]map[string]bdl.Record

	wallsBySpace   map[string][]*bdl.Wall
	openingsByWall map[string][]*bdl.Opening
}

// Link indexes rs and checks that names are unique within a kind and that
// every reference resolves.
func Link(rs *bdl.Records) (*Index, error) {
	x := &Index{
		recs:           rs,
		byKind:         make(map[bdl.Kind]map[string]bdl.Record),
		wallsBySpace:   make(map[string][]*bdl.Wall),
		openingsByWall: make(map[string][]*bdl.Opening),
	}
	for _, r := range rs.All() {
		if r.Kind() == bdl.KindMeta {
			continue
		}
		names := x.byKind[r.Kind()]
		if names == nil {
			names = make(map[string]bdl.Record)
			x.byKind[r.Kind()] = names
		}
		if prev, ok := names[r.RecordName()]; ok {
			return nil, &DuplicateNameError{r.Kind(), r.RecordName(), prev.Position(), r.Position()}
		}
		names[r.RecordName()] = r
	}
	for _, r := range rs.All() {
		for _, ref := range r.References() {
			if _, ok := x.Lookup(ref.Kind, ref.Name); !ok {
				return nil, &UnresolvedReferenceError{ref.Kind, ref.Name, r.RecordName()}
			}
		}
	}

	for _, w := range rs.Walls {
		x.wallsBySpace[w.Space] = append(x.wallsBySpace[w.Space], w)
	}
	for _, list := range [][]*bdl.Opening{rs.Windows, rs.Doors} {
		for _, o := range list {
			x.openingsByWall[o.Wall] = append(x.openingsByWall[o.Wall], o)
		}
	}
	return x, nil
}

// Records returns the linked records.
func (x *Index) Records() *bdl.Records { return x.recs }

// Lookup returns the record of the given kind and name.
func (x *Index) Lookup(kind bdl.Kind, name string) (bdl.Record, bool) {
	r, ok := x.byKind[kind][name]
	return r, ok
}

func lookup[T bdl.Record](x *Index, kind bdl.Kind, name string) T {
	r, _ := x.Lookup(kind, name)
	t, _ := r.(T)
	return t
}

// The typed lookups return nil if the name is unknown.

func (x *Index) Floor(name string) *bdl.Floor {
	return lookup[*bdl.Floor](x, bdl.KindFloor, name)
}

func (x *Index) Space(name string) *bdl.Space {
	return lookup[*bdl.Space](x, bdl.KindSpace, name)
}

func (x *Index) Polygon(name string) *bdl.Polygon {
	return lookup[*bdl.Polygon](x, bdl.KindPolygon, name)
}

func (x *Index) Wall(name string) *bdl.Wall {
	return lookup[*bdl.Wall](x, bdl.KindWall, name)
}

func (x *Index) Construction(name string) *bdl.Construction {
	return lookup[*bdl.Construction](x, bdl.KindConstruction, name)
}

func (x *Index) Layers(name string) *bdl.Layers {
	return lookup[*bdl.Layers](x, bdl.KindLayers, name)
}

func (x *Index) Material(name string) *bdl.Material {
	return lookup[*bdl.Material](x, bdl.KindMaterial, name)
}

func (x *Index) Gap(name string) *bdl.Gap {
	return lookup[*bdl.Gap](x, bdl.KindGap, name)
}

func (x *Index) Glass(name string) *bdl.Glass {
	return lookup[*bdl.Glass](x, bdl.KindGlass, name)
}

func (x *Index) Frame(name string) *bdl.Frame {
	return lookup[*bdl.Frame](x, bdl.KindFrame, name)
}

// WallsOf returns the walls enclosing space, in source order.
func (x *Index) WallsOf(space string) []*bdl.Wall { return x.wallsBySpace[space] }

// OpeningsOf returns the windows and then the doors of wall, each in
// source order.
func (x *Index) OpeningsOf(wall string) []*bdl.Opening { return x.openingsByWall[wall] }

// A Target attaches an override to a named record.
type Target struct {
	Kind     bdl.Kind
	Name     string
	Override bdl.Override
}

var overridable = map[bdl.Kind][]bdl.OverrideKind{
	bdl.KindWall:   {bdl.OverrideUValue},
	bdl.KindWindow: {bdl.OverrideUValue, bdl.OverrideFshobst},
	bdl.KindSpace:  {bdl.OverrideExposedPerimeter},
}

// ApplyOverrides attaches each target's override to its record. source
// names the file the targets came from and is the referrer of any
// unresolved target.
func (x *Index) ApplyOverrides(source string, ts []Target) error {
	for _, t := range ts {
		ok := false
		for _, k := range overridable[t.Kind] {
			ok = ok || k == t.Override.Kind
		}
		if !ok {
			return fmt.Errorf("%s: override %s does not apply to %s %q", source, t.Override.Kind, t.Kind, t.Name)
		}
		r, found := x.Lookup(t.Kind, t.Name)
		if !found {
			return &UnresolvedReferenceError{t.Kind, t.Name, source}
		}
		o := t.Override
		if o.Source == "" {
			o.Source = source
		}
		switch r := r.(type) {
		case *bdl.Wall:
			r.Overrides = setOverride(r.Overrides, o)
		case *bdl.Opening:
			r.Overrides = setOverride(r.Overrides, o)
		case *bdl.Space:
			r.Overrides = setOverride(r.Overrides, o)
		}
	}
	return nil
}

// setOverride replaces an override of the same kind, so later sources
// win.
func setOverride(os bdl.Overrides, o bdl.Override) bdl.Overrides {
	for i := range os {
		if os[i].Kind == o.Kind {
			os[i] = o
			return os
		}
	}
	return append(os, o)
}
