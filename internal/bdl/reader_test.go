package bdl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nestedSrc = `TOOL PREAMBLE 1.0
+ noise line
"Datos" = GENERAL-DATA
  ZONA = "D3"
  ..
"P1" = FLOOR
  SPACE-HEIGHT = 3
  ..
"E1" = SPACE
  POLYGON = "E1_POL"
  ..
"M1" = EXTERIOR-WALL
  CONSTRUCTION = "C"
  LOCATION = SPACE-V1
  ..
"V1" = WINDOW
  GAP = "G"
  ..
MARCOS
"E1_POL" = POLYGON
  V1 = ( 0, 0 )
  V2 = ( 1, 0 )
  V3 = ( ( 1, 1 ) )
  ..
"P2" = FLOOR
  ..
"E2" = SPACE
  ..
`

func TestParseNesting(t *testing.T) {
	doc, err := Parse(nestedSrc)
	require.NoError(t, err)
	assert.Equal(t, "TOOL PREAMBLE 1.0\n+ noise line", doc.Preamble)

	require.Len(t, doc.Blocks, 8)
	byName := make(map[string]*Block)
	for _, b := range doc.Blocks {
		byName[b.Name] = b
	}
	assert.Equal(t, "P1", byName["E1"].ParentName())
	assert.Equal(t, "E1", byName["M1"].ParentName())
	assert.Equal(t, "M1", byName["V1"].ParentName())
	assert.Equal(t, "", byName["E1_POL"].ParentName())
	assert.Equal(t, "P2", byName["E2"].ParentName())

	var roots []string
	for _, b := range doc.Roots {
		roots = append(roots, b.Name)
	}
	assert.Equal(t, []string{"Datos", "P1", "E1_POL", "P2"}, roots)

	// Positions refer to the unsanitized text.
	assert.Equal(t, 3, byName["Datos"].Pos.Line)
	assert.Equal(t, 20, byName["E1_POL"].Pos.Line)

	a, ok := byName["E1_POL"].Attr("V3")
	require.True(t, ok)
	assert.Equal(t, "( 1, 1 )", a.Value.String())
}

func TestParseAttrLastWins(t *testing.T) {
	doc, err := Parse("\"C\" = CONSTRUCTION\n TYPE = LAYERS\n TYPE = U-VALUE\n ..\n")
	require.NoError(t, err)
	a, ok := doc.Blocks[0].Attr("TYPE")
	require.True(t, ok)
	assert.Equal(t, "U-VALUE", a.Value.Text)
}

func TestParsePositionalArgs(t *testing.T) {
	doc, err := Parse("TITLE \"first\" LINE-1 ( 1 2 )\n  KEY = 1\n  ..\n")
	require.NoError(t, err)
	b := doc.Blocks[0]
	assert.Equal(t, "TITLE", b.Type)
	assert.Equal(t, "", b.Name)
	require.Len(t, b.Args, 3)
	assert.True(t, b.Args[0].Quoted)
	assert.Equal(t, "LINE-1", b.Args[1].Text)
	assert.True(t, b.Args[2].IsList)
}

func TestParseMalformed(t *testing.T) {
	for name, src := range map[string]string{
		"missing terminator at EOF":   "\"A\" = SPACE\n  X = 1\n",
		"missing terminator at block": "\"A\" = SPACE\n  X = 1\n\"B\" = SPACE\n  ..\n",
		"positional after keyword":    "\"A\" = SPACE\n  X = 1\n  EXTRA\n  ..\n",
		"missing value":               "\"A\" = SPACE\n  X = ..\n",
		"unterminated list":           "\"A\" = POLYGON\n  V1 = ( 0, 0\n  ..\n",
		"no block type":               "\"A\" = \"B\"\n  ..\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(src)
			var mal *MalformedBlockError
			assert.True(t, errors.As(err, &mal), "got %v", err)
		})
	}
}

func TestSanitizeKeepsLineCount(t *testing.T) {
	src := "pre\n\"G\" = GENERAL-DATA\n..\nTEMPLARY x\nHUECOS\nÿ"
	body, pre := sanitize(src)
	assert.Equal(t, "pre", pre)
	assert.Equal(t, "\n\"G\" = GENERAL-DATA\n..\n\n\n", body)
}
