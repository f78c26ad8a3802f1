package render

import (
	"bytes"
	"fmt"
	"os/exec"
)

// ToPDF converts SVG bytes to PDF. Requires rsvg-convert from librsvg on
// PATH.
func ToPDF(svg []byte) ([]byte, error) {
	return convertSVG(svg, "pdf")
}

// ToPNG converts SVG bytes to PNG, scaled by the given factor; 2.0 doubles
// the pixel dimensions for high-DPI displays. Requires rsvg-convert from
// librsvg on PATH.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	return convertSVG(svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// convertSVG pipes svg through rsvg-convert and returns the converted
// bytes. The tool check runs first so a missing librsvg produces an
// install hint instead of an exec error.
func convertSVG(svg []byte, format string, extra ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, fmt.Errorf("%s export needs rsvg-convert (librsvg): install with 'brew install librsvg' on macOS or 'apt install librsvg2-bin' on Linux", format)
	}

	cmd := exec.Command("rsvg-convert", append([]string{"-f", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, stderr.String())
	}
	return out.Bytes(), nil
}
