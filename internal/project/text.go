package project

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts the contents of a project file to UTF-8. Project
// files are ISO-8859-1 unless they start with a UTF-8 byte order mark.
// Pure ASCII is the same in both.
func DecodeText(b []byte) (string, error) {
	if rest, ok := bytes.CutPrefix(b, utf8BOM); ok {
		return string(rest), nil
	}
	if isASCII(b) {
		return string(b), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// readText reads and decodes a project file.
func readText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s, err := DecodeText(b)
	if err != nil {
		return "", fmt.Errorf("%s: decoding text: %w", path, err)
	}
	return s, nil
}
