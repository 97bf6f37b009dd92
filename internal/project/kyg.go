package project

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/model"
)

// A KyGWindow is a window row of a KyGananciasSolares.txt results file.
type KyGWindow struct {
	Name        string
	Area, U     float64
	Orientation string
	// FrameFraction is in [0, 1].
	FrameFraction float64
	// Fshobst is the obstruction factor reported by the solar gains
	// section, if the file has one for this window.
	Fshobst    float64
	HasFshobst bool
}

// A KyGWall is an opaque element row.
type KyGWall struct {
	Name    string
	Area, U float64
	// Btr is the temperature reduction factor.
	Btr float64
}

// A KyGBridge is a thermal bridge row.
type KyGBridge struct {
	Name        string
	Length, Psi float64
}

// KyG holds the results the legacy tool computed for the envelope.
type KyG struct {
	Windows []KyGWindow
	Walls   []KyGWall
	Bridges []KyGBridge
}

// ReadKyG parses a KyGananciasSolares.txt results file. The text must
// already be decoded.
func ReadKyG(src io.Reader) (*KyG, error) {
	k := &KyG{}
	fshobst := make(map[string]float64)
	sc := bufio.NewScanner(src)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		fail := func(format string, args ...any) (*KyG, error) {
			return nil, fmt.Errorf("reading KyG: line %d: %s", lineNo, fmt.Sprintf(format, args...))
		}
		fs := strings.Split(line, ";")
		for i := range fs {
			fs[i] = strings.TrimSpace(fs[i])
		}
		num := func(i int) (float64, error) {
			v, err := strconv.ParseFloat(strings.ReplaceAll(fs[i], ",", "."), 64)
			if err != nil {
				return 0, fmt.Errorf("field %d: %w", i+1, err)
			}
			return v, nil
		}
		nums := func(idx ...int) ([]float64, error) {
			out := make([]float64, len(idx))
			for j, i := range idx {
				v, err := num(i)
				if err != nil {
					return nil, err
				}
				out[j] = v
			}
			return out, nil
		}

		switch {
		case fs[0] == "Ventana":
			if len(fs) < 6 {
				return fail("window row with %d fields", len(fs))
			}
			v, err := nums(2, 3, 5)
			if err != nil {
				return fail("%v", err)
			}
			k.Windows = append(k.Windows, KyGWindow{
				Name:          fs[1],
				Area:          v[0],
				U:             v[1],
				Orientation:   strings.ReplaceAll(fs[4], "O", "W"),
				FrameFraction: v[2] / 100,
			})
		case fs[0] == "Muro":
			if len(fs) < 5 {
				return fail("wall row with %d fields", len(fs))
			}
			v, err := nums(2, 3, 4)
			if err != nil {
				return fail("%v", err)
			}
			k.Walls = append(k.Walls, KyGWall{Name: fs[1], Area: v[0], U: v[1], Btr: v[2]})
		case fs[0] == "PPTT":
			if len(fs) < 4 {
				return fail("thermal bridge row with %d fields", len(fs))
			}
			v, err := nums(1, 2)
			if err != nil {
				return fail("%v", err)
			}
			k.Bridges = append(k.Bridges, KyGBridge{Name: fs[3], Length: v[0], Psi: v[1]})
		case strings.HasPrefix(line, `"`):
			// "name";azimuth;area;htot;h1;h2;h3;gain
			if len(fs) < 8 {
				return fail("solar gains row with %d fields", len(fs))
			}
			v, err := nums(3, 5)
			if err != nil {
				return fail("%v", err)
			}
			if v[0] == 0 {
				continue
			}
			fshobst[strings.Trim(fs[0], `"`)] = math.Round(v[1]/v[0]*100) / 100
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading KyG: %w", err)
	}
	for i := range k.Windows {
		w := &k.Windows[i]
		w.Fshobst, w.HasFshobst = fshobst[w.Name]
	}
	return k, nil
}

// Targets returns the overrides the results file provides: the U value
// of every window and wall and the obstruction factor of the windows
// that have one.
func (k *KyG) Targets() []model.Target {
	var ts []model.Target
	for _, w := range k.Windows {
		ts = append(ts, model.Target{Kind: bdl.KindWindow, Name: w.Name,
			Override: bdl.Override{Kind: bdl.OverrideUValue, Value: w.U}})
		if w.HasFshobst {
			ts = append(ts, model.Target{Kind: bdl.KindWindow, Name: w.Name,
				Override: bdl.Override{Kind: bdl.OverrideFshobst, Value: w.Fshobst}})
		}
	}
	for _, w := range k.Walls {
		ts = append(ts, model.Target{Kind: bdl.KindWall, Name: w.Name,
			Override: bdl.Override{Kind: bdl.OverrideUValue, Value: w.U}})
	}
	return ts
}
