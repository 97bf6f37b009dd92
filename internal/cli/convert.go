package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aclements/envelope/internal/convert"
	"github.com/aclements/envelope/internal/model"
	"github.com/aclements/envelope/internal/project"
)

func newConvertCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "convert <project>",
		Short: "Convert a project to a JSON envelope model",
		Long: `Convert reads the project at the given path, which is either a project
directory or a .ctehexml or .bdl file, and writes the envelope model as JSON.

Warnings are printed to stderr and never affect the exit status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := getEnv(cmd)
			c, err := e.newConverter()
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), e, c, args[0], output, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, or - for stdout")
	addPipelineFlags(cmd.Flags())
	return cmd
}

// runConvert converts the project at path and writes the model to output.
// The file is replaced only once the whole document is encoded.
func runConvert(ctx context.Context, e *env, c *convert.Converter, path, output string, stdout, stderr io.Writer) error {
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	m, err := c.Convert(ctx, p)
	if err != nil {
		return err
	}
	printWarnings(stderr, m.Warnings)

	var buf bytes.Buffer
	if err := model.Encode(&buf, m); err != nil {
		return err
	}
	if output == "-" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := writeFileAtomic(output, buf.Bytes()); err != nil {
		return err
	}
	e.log.Info("wrote model",
		zap.String("output", output),
		zap.Int("windows", len(m.Windows)),
		zap.Int("warnings", len(m.Warnings)))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
