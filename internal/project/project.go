// Package project locates and reads the files that make up a legacy tool
// project: the building description and its optional side files.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aclements/envelope/internal/model"
)

// Well-known side file names. They are matched case-insensitively.
const (
	TblFile       = "NewBDL_O.tbl"
	KyGFile       = "KyGananciasSolares.txt"
	OverridesFile = "overrides.yaml"
)

// Files are the paths of a project's files. Optional files that are not
// present are "".
type Files struct {
	// Building is the .ctehexml or .bdl file.
	Building  string
	Tbl       string
	KyG       string
	Overrides string
}

// All returns the paths of the files that are present.
func (f Files) All() []string {
	var out []string
	for _, p := range []string{f.Building, f.Tbl, f.KyG, f.Overrides} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ErrNoBuilding is returned by Discover for a directory with no building
// file.
var ErrNoBuilding = errors.New("no .ctehexml or .bdl file")

// Discover finds the files of the project at path, which is either a
// project directory or a building file. Side files are looked up in the
// building file's directory.
func Discover(path string) (Files, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Files{}, err
	}
	var f Files
	dir := path
	if st.IsDir() {
		ents, err := os.ReadDir(path)
		if err != nil {
			return Files{}, err
		}
		var bdlFile string
		for _, e := range ents {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".ctehexml":
				if f.Building == "" {
					f.Building = filepath.Join(path, e.Name())
				}
			case ".bdl":
				if bdlFile == "" {
					bdlFile = filepath.Join(path, e.Name())
				}
			}
		}
		if f.Building == "" {
			f.Building = bdlFile
		}
		if f.Building == "" {
			return Files{}, fmt.Errorf("%s: %w", path, ErrNoBuilding)
		}
	} else {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ctehexml", ".bdl":
		default:
			return Files{}, fmt.Errorf("%s: not a .ctehexml or .bdl file", path)
		}
		f.Building = path
		dir = filepath.Dir(path)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return Files{}, err
	}
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		switch {
		case strings.EqualFold(e.Name(), TblFile):
			f.Tbl = p
		case strings.EqualFold(e.Name(), KyGFile):
			f.KyG = p
		case strings.EqualFold(e.Name(), OverridesFile):
			f.Overrides = p
		}
	}
	return f, nil
}

// A Project is a building description and its side data, read into
// memory.
type Project struct {
	Files Files

	// Name is the building name, or the building file's base name.
	Name string
	// Zone is the climate zone from a .ctehexml envelope. For a bare
	// .bdl file it is "".
	Zone string
	// BDL is the decoded building description.
	BDL string

	Tbl *Tbl
	KyG *KyG
	// Overrides are the targets of overrides.yaml.
	Overrides []model.Target
}

// Load discovers and reads the project at path.
func Load(path string) (*Project, error) {
	files, err := Discover(path)
	if err != nil {
		return nil, err
	}
	p := &Project{Files: files}

	src, err := readText(files.Building)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(files.Building)
	p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	if strings.EqualFold(filepath.Ext(base), ".ctehexml") {
		c, err := ReadCtehexml(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", files.Building, err)
		}
		p.BDL, p.Zone = c.BDL, c.Zone
		if c.Name != "" {
			p.Name = c.Name
		}
	} else {
		p.BDL = src
	}

	if files.Tbl != "" {
		src, err := readText(files.Tbl)
		if err != nil {
			return nil, err
		}
		if p.Tbl, err = ReadTbl(strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("%s: %w", files.Tbl, err)
		}
	}
	if files.KyG != "" {
		src, err := readText(files.KyG)
		if err != nil {
			return nil, err
		}
		if p.KyG, err = ReadKyG(strings.NewReader(src)); err != nil {
			return nil, fmt.Errorf("%s: %w", files.KyG, err)
		}
	}
	if files.Overrides != "" {
		f, err := os.Open(files.Overrides)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if p.Overrides, err = ReadOverrides(f); err != nil {
			return nil, fmt.Errorf("%s: %w", files.Overrides, err)
		}
	}
	return p, nil
}

// Side returns the side table areas, or nil if the project has no side
// table.
func (p *Project) Side() *model.SideAreas {
	if p.Tbl == nil {
		return nil
	}
	return p.Tbl.SideAreas()
}
