package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aclements/envelope/internal/convert"
	"github.com/aclements/envelope/internal/project"
)

// watchDebounce is how long the project must be quiet before it is
// converted again.
const watchDebounce = 200 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "watch <project> -o out.json",
		Short: "Convert a project again whenever its files change",
		Long: `Watch converts the project, then watches its directory and converts it
again after every change to the building file or a side file. Derived
geometry that did not change is reused from the previous run.

A failed conversion is reported and watching continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" || output == "-" {
				return errors.New("watch needs an output file")
			}
			e := getEnv(cmd)
			c, err := e.newConverter()
			if err != nil {
				return err
			}
			return watch(cmd.Context(), e, c, args[0], output, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	addPipelineFlags(cmd.Flags())
	return cmd
}

// relevant reports whether a change to name can change the conversion.
func relevant(name string, files project.Files) bool {
	for _, f := range files.All() {
		if filepath.Clean(f) == filepath.Clean(name) {
			return true
		}
	}
	base := filepath.Base(name)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".ctehexml", ".bdl":
		return true
	}
	for _, side := range []string{project.TblFile, project.KyGFile, project.OverridesFile} {
		if strings.EqualFold(base, side) {
			return true
		}
	}
	return false
}

// watch converts the project at path until ctx is done.
func watch(ctx context.Context, e *env, c *convert.Converter, path, output string, stdout, stderr io.Writer) error {
	files, err := project.Discover(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	dir := filepath.Dir(files.Building)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	run := func() {
		start := time.Now()
		if err := runConvert(ctx, e, c, path, output, stdout, stderr); err != nil {
			if ctx.Err() == nil {
				e.log.Error("conversion failed", zap.Error(err))
			}
			return
		}
		e.log.Info("converted", zap.String("project", path), zap.Duration("elapsed", time.Since(start)))
	}
	run()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// The output may be written next to the project.
			if filepath.Clean(ev.Name) == filepath.Clean(output) || !relevant(ev.Name, files) {
				continue
			}
			e.log.Debug("change detected", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			debounce = time.After(watchDebounce)
		case <-debounce:
			debounce = nil
			if files, err = project.Discover(path); err != nil {
				e.log.Error("discovering project", zap.Error(err))
				continue
			}
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.log.Warn("watcher error", zap.Error(err))
		}
	}
}
