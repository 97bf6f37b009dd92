package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedKeepsStageThenEmissionOrder(t *testing.T) {
	obst := NewCollector(StageObstruction)
	obst.Addf(SampleSkipped, "W1", "sample %d", 1)

	geo := NewCollector(StageGeometry)
	geo.Addf(OpeningOutsideWall, "W2", "outside")
	geo.Addf(InsufficientGeometry, "S1", "no slab")

	ext := NewCollector(StageExtraction)
	ext.Addf(ZGroundIgnored, "M1", "ignored")

	got := Ordered(obst, geo, nil, ext)
	require.Len(t, got, 4)
	assert.Equal(t, ZGroundIgnored, got[0].Code)
	assert.Equal(t, OpeningOutsideWall, got[1].Code)
	assert.Equal(t, InsufficientGeometry, got[2].Code)
	assert.Equal(t, SampleSkipped, got[3].Code)
}

func TestMergeKeepsOriginalStage(t *testing.T) {
	a := NewCollector(StageObstruction)
	b := NewCollector(StageObstruction)
	b.Addf(NoValidSamples, "W", "none")
	a.Merge(b)
	a.Merge(nil)
	require.Equal(t, 1, a.Len())
	assert.Equal(t, StageObstruction, a.Warnings()[0].Stage)
}

func TestStageText(t *testing.T) {
	for _, s := range []Stage{StageExtraction, StageGeometry, StageObstruction, StageAssembly} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back Stage
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
	var s Stage
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
}

func TestWarningString(t *testing.T) {
	w := Warning{Stage: StageGeometry, Code: AreaMismatch, Entity: "M1", Message: "1.0 vs 2.0"}
	assert.Equal(t, `[geometry] AreaMismatch "M1": 1.0 vs 2.0`, w.String())
}
