package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aclements/envelope/internal/project"
	"github.com/aclements/envelope/internal/solar"
)

func newShadowsCmd() *cobra.Command {
	var window, output string
	cmd := &cobra.Command{
		Use:   "shadows <project> --window NAME",
		Short: "Chart the sunlit fraction of a window",
		Long: `Shadows traces the sun over a window for every hour of the representative
day of each month and writes a PNG heat map of the sunlit fraction of the
window. Night is black and hours with the sun behind the wall are gray.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if window == "" {
				return errors.New("--window is required")
			}
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
			eng, err := c.Engine(prep)
			if err != nil {
				return err
			}
			points, err := eng.Trace(cmd.Context(), prep.Index, prep.Geometry, window)
			if err != nil {
				return err
			}

			plt := solar.SunlitChart(window, points)
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := solar.WriteChart(f, plt); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			e.log.Info("wrote chart", zap.String("window", window), zap.Int("samples", len(points)), zap.String("output", output))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&window, "window", "", "window name")
	cmd.Flags().StringVarP(&output, "output", "o", "shadows.png", "PNG output file")
	addPipelineFlags(cmd.Flags())
	return cmd
}
