package bdl

import (
	"strings"

	"github.com/aclements/envelope/internal/report"
)

func extractMaterial(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	m := &Material{
		Name:  b.Name,
		Group: r.optStr("GROUP", "Materiales"),
		Pos:   b.Pos,
	}
	switch typ := r.str("TYPE"); typ {
	case "PROPERTIES":
		m.Thickness = r.floatPtr("THICKNESS")
		c := r.float("CONDUCTIVITY")
		m.Conductivity = &c
		m.Density = r.float("DENSITY")
		m.SpecificHeat = r.optFloat("SPECIFIC-HEAT", 800)
		m.VapourDiffusivity = r.floatPtr("VAPOUR-DIFFUSIVITY-FACTOR")
	case "RESISTANCE":
		res := r.float("RESISTANCE")
		m.Resistance = &res
	case "":
	default:
		r.invalidValue("TYPE", r.attrValue("TYPE"), "expected PROPERTIES or RESISTANCE")
	}
	return r.done(m)
}

// airChamberPrefix starts the names of the air chamber materials. The
// exporting tool writes a default thickness for them; the real one is in
// the name.
const airChamberPrefix = "Cámara de aire "

var airChamberThickness = map[string]float64{
	" 1 cm": 0.01,
	" 2 cm": 0.02,
	" 5 cm": 0.05,
	"10 cm": 0.10,
}

func extractLayers(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	l := &Layers{
		Name:      b.Name,
		Group:     r.optStr("GROUP", "Capas"),
		Materials: r.names("MATERIAL"),
		Thickness: r.floats("THICKNESS"),
		Pos:       b.Pos,
	}
	if r.err != nil {
		return nil, r.err
	}
	if len(l.Materials) != len(l.Thickness) {
		r.invalidValue("THICKNESS", r.attrValue("THICKNESS"), "%d thicknesses for %d materials", len(l.Thickness), len(l.Materials))
		return nil, r.err
	}
	for i, name := range l.Materials {
		if !strings.HasPrefix(name, airChamberPrefix) || len(name) < 5 {
			continue
		}
		e, ok := airChamberThickness[name[len(name)-5:]]
		if !ok || e == l.Thickness[i] {
			continue
		}
		w.Addf(report.AirChamberThicknessFixed, b.Name, "layer %d (%s): thickness %g replaced by %g", i+1, name, l.Thickness[i], e)
		l.Thickness[i] = e
	}
	return l, nil
}

func extractConstruction(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	c := &Construction{Name: b.Name, Pos: b.Pos}
	switch typ := r.optStr("TYPE", "LAYERS"); typ {
	case "LAYERS":
		c.Layers = r.str("LAYERS")
		c.Absorptance = r.optFloat("ABSORPTANCE", 0.6)
	case "U-VALUE":
		u := r.float("U-VALUE")
		c.UValue = &u
		c.Absorptance = r.optFloat("ABSORPTANCE", 0.6)
	default:
		r.invalidValue("TYPE", r.attrValue("TYPE"), "expected LAYERS or U-VALUE")
	}
	return r.done(c)
}

func extractGlass(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	g := &Glass{
		Name:  b.Name,
		Group: r.optStr("GROUP", "Vidrios"),
		Pos:   b.Pos,
	}
	if typ := r.optStr("TYPE", "SHADING-COEF"); typ != "SHADING-COEF" {
		r.invalidValue("TYPE", r.attrValue("TYPE"), "only SHADING-COEF glasses are supported")
	}
	g.U = r.float("GLASS-CONDUCTANCE")
	g.GGln = 0.86 * r.float("SHADING-COEF")
	return r.done(g)
}

func extractFrame(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	f := &Frame{
		Name:        b.Name,
		Group:       r.optStr("GROUP", "Marcos"),
		U:           r.float("FRAME-CONDUCT"),
		Absorptance: r.float("FRAME-ABS"),
		Width:       r.optFloat("FRAME-WIDTH", 0),
		Pos:         b.Pos,
	}
	return r.done(f)
}

func extractGap(b *Block, w *report.Collector) (Record, error) {
	r := newAttrReader(b)
	g := &Gap{
		Name:          b.Name,
		Group:         r.optStr("GROUP", "Huecos"),
		Glass:         r.str("GLASS-TYPE"),
		Frame:         r.str("NAME-FRAME"),
		FrameFraction: r.float("PORCENTAGE") / 100,
		Infiltration:  r.float("INF-COEF"),
		DeltaU:        r.optFloat("porcentajeIncrementoU", 0),
		GGlShWi:       r.floatPtr("TransmisividadJulio"),
		Pos:           b.Pos,
	}
	return r.done(g)
}
