package project

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// A Ctehexml is the part of a .ctehexml project envelope the converter
// uses.
type Ctehexml struct {
	// Name is the building name.
	Name string
	// Zone is the CTE climate zone, such as "D3".
	Zone string
	// BDL is the building description.
	BDL string
}

// ReadCtehexml extracts the building description and general data from a
// .ctehexml document. src must already be decoded to UTF-8.
func ReadCtehexml(src string) (*Ctehexml, error) {
	dec := xml.NewDecoder(strings.NewReader(src))
	// The text is already UTF-8 whatever the declaration says.
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) { return input, nil }

	var c Ctehexml
	var stack []string
	var text strings.Builder
	foundGeneral := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ctehexml: %w", err)
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			stack = append(stack, tok.Name.Local)
			text.Reset()
			if tok.Name.Local == "DatosGenerales" {
				foundGeneral = true
			}
		case xml.CharData:
			text.Write(tok)
		case xml.EndElement:
			v := strings.TrimSpace(text.String())
			switch name := tok.Name.Local; {
			case name == "EntradaGraficaLIDER":
				c.BDL = v
			case within(stack, "DatosGenerales") && name == "zonaClimatica":
				c.Zone = v
			case within(stack, "DatosGenerales") && name == "nombreEdificio":
				c.Name = v
			}
			stack = stack[:len(stack)-1]
			text.Reset()
		}
	}
	if !foundGeneral {
		return nil, errors.New("reading ctehexml: no <DatosGenerales> element")
	}
	if c.BDL == "" {
		return nil, errors.New("reading ctehexml: empty <EntradaGraficaLIDER> element")
	}
	return &c, nil
}

// within reports whether an enclosing element of the current one is
// named name. The last entry of stack is the current element.
func within(stack []string, name string) bool {
	for _, s := range stack[:len(stack)-1] {
		if s == name {
			return true
		}
	}
	return false
}
