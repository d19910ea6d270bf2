// SPDX-License-Identifier: MIT
package window

import (
	"fmt"
	"strings"
)

// Shape selects the weighting curve applied to each analysis frame.
type Shape int

// Available window shapes. Hanning is the reference shape.
const (
	Hanning Shape = iota
	Hamming
	Rectangular
	Blackman
	BlackmanNuttall
	BartlettHann
	Nuttall
	Lanczos
)

var shapeNames = [...]string{
	Hanning:         "hanning",
	Hamming:         "hamming",
	Rectangular:     "rectangular",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	BartlettHann:    "bartletthann",
	Nuttall:         "nuttall",
	Lanczos:         "lanczos",
}

// String returns the canonical lower-case name of the shape.
func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("shape(%d)", int(s))
	}
	return shapeNames[s]
}

// Valid reports whether s is one of the declared shapes.
func (s Shape) Valid() bool {
	return s >= 0 && int(s) < len(shapeNames)
}

// ParseShape converts a name (case-insensitive) to a Shape. It returns Hanning
// and an error if the name is unknown.
func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning", "":
		return Hanning, nil
	case "hamming":
		return Hamming, nil
	case "rect", "rectangular", "none", "boxcar":
		return Rectangular, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall", "blackman-nuttall":
		return BlackmanNuttall, nil
	case "bartletthann", "bartlett-hann":
		return BartlettHann, nil
	case "nuttall":
		return Nuttall, nil
	case "lanczos":
		return Lanczos, nil
	default:
		return Hanning, fmt.Errorf("unknown window shape: '%s'", name)
	}
}

// MarshalText implements encoding.TextMarshaler so shapes round-trip through YAML.
func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid window shape %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(text []byte) error {
	shape, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = shape
	return nil
}
