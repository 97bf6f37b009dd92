package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aclements/envelope/internal/bdl"
	"github.com/aclements/envelope/internal/model"
	"github.com/aclements/envelope/internal/project"
	"github.com/aclements/envelope/internal/report"
	"github.com/aclements/envelope/internal/solar"
)

const cubeWindow = "P01_E01_PE001_V"

// cubeDir copies the cube project into a fresh directory with the given
// extra files.
func cubeDir(t *testing.T, extra map[string]string) string {
	t.Helper()
	src, err := os.ReadFile("../../testdata/cube/cube.bdl")
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cube.bdl"), src, 0666))
	for name, data := range extra {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0666))
	}
	return dir
}

func load(t *testing.T, dir string) *project.Project {
	t.Helper()
	p, err := project.Load(dir)
	require.NoError(t, err)
	return p
}

func TestConvertCube(t *testing.T) {
	p := load(t, cubeDir(t, nil))
	c := New(Options{}, zap.NewNop())
	m, err := c.Convert(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "cube", m.Meta.Name)
	assert.Equal(t, "D3", m.Meta.Climate)
	assert.Equal(t, 40.68333, m.Meta.Latitude)

	win := m.Windows[model.ID(bdl.KindWindow, cubeWindow)]
	require.NotNil(t, win)
	require.NotNil(t, win.Obstruction, "computed, not overridden")
	assert.Greater(t, win.Fshobst, 0.0)
	assert.Less(t, win.Fshobst, 1.0)
	assert.Equal(t, win.Obstruction.July, win.Fshobst)

	// Converting again gives the same document.
	var a, b bytes.Buffer
	require.NoError(t, model.Encode(&a, m))
	m2, err := c.Convert(context.Background(), load(t, filepath.Dir(p.Files.Building)))
	require.NoError(t, err)
	require.NoError(t, model.Encode(&b, m2))
	assert.Equal(t, a.String(), b.String())
}

func TestResultsFileOverrides(t *testing.T) {
	dir := cubeDir(t, map[string]string{
		project.KyGFile: "Ventana;" + cubeWindow + ";3,00;2,10;S;20\n" +
			"Muro;GENERADO_ADIABATICO;10,0;0,50;0,00\n" +
			`"` + cubeWindow + `";180;3,00;400,0;380,0;260,0;300,0;250,0` + "\n",
		project.OverridesFile: "windows:\n  " + cubeWindow + ": {u_value: 1.8}\n",
	})
	m, err := New(Options{}, zap.NewNop()).Convert(context.Background(), load(t, dir))
	require.NoError(t, err)

	win := m.Windows[model.ID(bdl.KindWindow, cubeWindow)]
	require.NotNil(t, win)
	assert.Equal(t, 0.65, win.Fshobst)
	assert.Nil(t, win.Obstruction)
	assert.Equal(t, 1.8, win.U, "overrides.yaml wins over the results file")

	var unmatched []string
	for _, w := range m.Warnings {
		if w.Code == report.UnmatchedSideTable {
			unmatched = append(unmatched, w.Entity)
		}
	}
	assert.Equal(t, []string{"GENERADO_ADIABATICO"}, unmatched)
}

func TestOverrideUnknownRecord(t *testing.T) {
	dir := cubeDir(t, map[string]string{
		project.OverridesFile: "walls:\n  NOPE: {u_value: 1}\n",
	})
	_, err := New(Options{}, zap.NewNop()).Convert(context.Background(), load(t, dir))
	var ur *model.UnresolvedReferenceError
	assert.ErrorAs(t, err, &ur)
}

func TestClimateSelection(t *testing.T) {
	p := load(t, cubeDir(t, nil))

	c := New(Options{Zone: "Z9"}, zap.NewNop())
	_, err := c.Convert(context.Background(), p)
	var nce *solar.NoClimateDataError
	assert.True(t, errors.As(err, &nce))

	lc, err := solar.NewLocationClimate(28.3, -16.4)
	require.NoError(t, err)
	c = New(Options{Climate: lc, Zone: "Z9", Method: solar.MethodRays, Workers: 2}, zap.NewNop())
	prep, err := c.Prepare(p)
	require.NoError(t, err)
	assert.Equal(t, "D3", prep.Zone)
	e, err := c.Engine(prep)
	require.NoError(t, err)
	assert.Same(t, lc, e.Climate)
	assert.Equal(t, solar.MethodRays, e.Method)
	assert.Equal(t, 2, e.Workers)
}

func TestNorthAngle(t *testing.T) {
	src, err := os.ReadFile("../../testdata/cube/cube.bdl")
	require.NoError(t, err)
	turned := bytes.Replace(src, []byte("AZIMUTH = 0"), []byte("AZIMUTH = 30"), 1)
	bad := bytes.Replace(src, []byte("AZIMUTH = 0"), []byte("AZIMUTH = norte"), 1)

	c := New(Options{}, zap.NewNop())
	prep, err := c.Prepare(&project.Project{Name: "cube", BDL: string(turned)})
	require.NoError(t, err)
	assert.Equal(t, 30.0, prep.NorthAngle)

	_, err = c.Prepare(&project.Project{Name: "cube", BDL: string(bad)})
	var ne *bdl.InvalidNumberError
	assert.ErrorAs(t, err, &ne)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}, zap.NewNop()).Convert(ctx, load(t, cubeDir(t, nil)))
	assert.ErrorIs(t, err, context.Canceled)
}
