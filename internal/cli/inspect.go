package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/convert"
	"github.com/aclements/envelope/internal/project"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <project>",
		Short: "Show the derived geometry of a project",
		Long: `Inspect resolves the project and prints tables of its spaces, walls and
windows with their derived areas and U values. It does not compute
obstruction factors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := getEnv(cmd)
			c, err := e.newConverter()
			if err != nil {
				return err
			}
			p, err := project.Load(args[0])
			if err != nil {
				return err
			}
			prep, err := c.Prepare(p)
			if err != nil {
				return err
			}
			printInspect(cmd.OutOrStdout(), prep)
			printWarnings(cmd.ErrOrStderr(), prep.Warnings())
			return nil
		},
	}
	cmd.Flags().Bool("skip-unresolved", false, "drop records with bad attributes or geometry instead of failing")
	return cmd
}

func newTable(w io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

// alignNumbers right-aligns columns from first on.
func alignNumbers(t table.Writer, first, n int) {
	var cfgs []table.ColumnConfig
	for i := first; i <= n; i++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(cfgs)
}

func printInspect(w io.Writer, prep *convert.Prepared) {
	recs := prep.Index.Records()
	geo := prep.Geometry

	fmt.Fprintf(w, "%s: zone %q, north angle %g°\n\n", prep.Project.Name, prep.Zone, prep.NorthAngle)

	t := newTable(w, "Spaces", table.Row{"Name", "Floor", "Area m²", "Height m", "Volume m³", "Exposed perimeter m"})
	alignNumbers(t, 3, 6)
	var area, volume float64
	for _, s := range recs.Spaces {
		g := geo.Spaces[s.Name]
		if g == nil {
			continue
		}
		t.AppendRow(table.Row{s.Name, s.Floor, f2(g.Area), f2(g.NetHeight), f2(g.Volume), f2(g.ExposedPerimeter)})
		area += g.Area * s.Multiplier
		volume += g.Volume * s.Multiplier
	}
	t.AppendFooter(table.Row{"Total", "", f2(area), "", f2(volume), ""})
	t.Render()
	fmt.Fprintln(w)

	t = newTable(w, "Walls", table.Row{"Name", "Space", "Bounds", "Azimuth", "Tilt", "Gross m²", "Net m²", "U W/m²K"})
	alignNumbers(t, 4, 8)
	for _, wall := range recs.Walls {
		g := geo.Walls[wall.Name]
		if g == nil {
			continue
		}
		t.AppendRow(table.Row{wall.Name, wall.Space, wall.Bounds, f1(g.Azimuth), f1(g.Tilt), f2(g.GrossArea), f2(g.NetArea), f2(g.U)})
	}
	t.Render()
	fmt.Fprintln(w)

	t = newTable(w, "Windows", table.Row{"Name", "Wall", "Area m²", "U W/m²K", "Fshobst"})
	alignNumbers(t, 3, 5)
	for _, o := range recs.Windows {
		g := geo.Openings[o.Name]
		if g == nil {
			continue
		}
		fshobst := "computed"
		if v, ok := o.Overrides.Lookup(bdl.OverrideFshobst); ok {
			fshobst = f2(v)
		}
		t.AppendRow(table.Row{o.Name, o.Wall, f2(g.Area), f2(g.U), fshobst})
	}
	t.Render()
}

func f1(v float64) string { return fmt.Sprintf("%.1f", v) }
func f2(v float64) string { return fmt.Sprintf("%.2f", v) }
