package utils

import (
	"strconv"
	"strings"
)

// Size is the packed dimension set of an item.
type Size struct {
	Width  *float64 `json:"width"`
	Length *float64 `json:"length"`
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
}

// PackSize renders "width|length|height|weight"; a missing dimension is "0".
func PackSize(s *Size) string {
	if s == nil {
		s = &Size{}
	}
	parts := []string{
		formatDimension(s.Width),
		formatDimension(s.Length),
		formatDimension(s.Height),
		formatDimension(s.Weight),
	}
	return strings.Join(parts, LogicalNameSeparator)
}

// UnpackSize is the inverse of PackSize. Malformed components read as 0.
func UnpackSize(packed string) *Size {
	parts := strings.Split(packed, LogicalNameSeparator)
	values := make([]*float64, 4)
	for i := range values {
		v := 0.0
		if i < len(parts) {
			if f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64); err == nil {
				v = f
			}
		}
		values[i] = &v
	}
	return &Size{Width: values[0], Length: values[1], Height: values[2], Weight: values[3]}
}

func formatDimension(v *float64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
