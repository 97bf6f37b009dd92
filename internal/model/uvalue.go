package model

import (
	"fmt"
	"math"

	"github.com/aclements/envelope/internal/bdl"
)

// Position is the orientation class of a surface, which selects its
// surface resistances.
type Position string

const (
	Top    Position = "TOP"
	Side   Position = "SIDE"
	Bottom Position = "BOTTOM"
)

// PositionOf classifies a surface by its tilt in degrees: 0 faces up and
// 180 faces down.
func PositionOf(tilt float64) Position {
	t := math.Mod(tilt, 360)
	if t < 0 {
		t += 360
	}
	switch {
	case t <= 60:
		return Top
	case t < 120:
		return Side
	case t < 240:
		return Bottom
	case t < 300:
		return Side
	}
	return Top
}

// Surface resistances in m²K/W (ISO 6946). The interior resistance
// depends on the direction of heat flow.
const (
	rsiTop    = 0.10
	rsiSide   = 0.13
	rsiBottom = 0.17
	rseOut    = 0.04
)

// surfaceResistances returns Rsi and Rse for a surface. Surfaces that
// are not in contact with the outside air or the ground see interior
// conditions on both sides.
func surfaceResistances(pos Position, b bdl.Bounds) (rsi, rse float64) {
	switch pos {
	case Top:
		rsi = rsiTop
	case Bottom:
		rsi = rsiBottom
	default:
		rsi = rsiSide
	}
	if b == bdl.Exterior || b == bdl.Ground {
		return rsi, rseOut
	}
	return rsi, rsi
}

type layerInput struct {
	Thickness    float64
	Conductivity float64
	Resistance   float64
	Fixed        bool // Resistance is given
}

// layerInputs collects the thermal inputs of a layer set. The materials
// have been checked by Link.
func layerInputs(x *Index, l *bdl.Layers) ([]layerInput, error) {
	in := make([]layerInput, len(l.Materials))
	for i, name := range l.Materials {
		m := x.Material(name)
		in[i].Thickness = l.Thickness[i]
		switch {
		case m.Resistance != nil:
			in[i].Resistance, in[i].Fixed = *m.Resistance, true
		case m.Conductivity != nil && *m.Conductivity > 0:
			in[i].Conductivity = *m.Conductivity
		default:
			return nil, fmt.Errorf("material %q of layers %q has no conductivity or resistance", name, l.Name)
		}
	}
	return in, nil
}

// opaqueU returns the thermal transmittance of an opaque construction at
// the given position and boundary, in W/m²K.
func (r *Resolver) opaqueU(x *Index, consName string, pos Position, b bdl.Bounds) (float64, error) {
	cons := x.Construction(consName)
	if cons.UValue != nil {
		return *cons.UValue, nil
	}
	in, err := layerInputs(x, x.Layers(cons.Layers))
	if err != nil {
		return 0, fmt.Errorf("construction %q: %w", consName, err)
	}
	rsi, rse := surfaceResistances(pos, b)
	return r.uvalues.Get(MakeKey("opaque", in, rsi, rse), func() (float64, error) {
		total := rsi + rse
		for _, l := range in {
			if l.Fixed {
				total += l.Resistance
			} else {
				total += l.Thickness / l.Conductivity
			}
		}
		return round(1/total, 3), nil
	})
}

// windowU returns the thermal transmittance of a window construction:
// the area-weighted glass and frame transmittances increased by the
// construction's percentage.
func (r *Resolver) windowU(x *Index, gapName string) (float64, error) {
	gap := x.Gap(gapName)
	glass, frame := x.Glass(gap.Glass), x.Frame(gap.Frame)
	return r.uvalues.Get(MakeKey("window", glass.U, frame.U, gap.FrameFraction, gap.DeltaU), func() (float64, error) {
		ff := gap.FrameFraction
		u := (1 + gap.DeltaU/100) * (frame.U*ff + glass.U*(1-ff))
		return round(u, 3), nil
	})
}

// round rounds x to the given number of decimals.
func round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}
