package graph

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalDecimal_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"MMK 20,000", "20000"},
		{"MMK -20,000", "-20000"},
		{"  ks 1,234.50  ", "1234.5"},
	}
	for _, tc := range cases {
		d, err := UnmarshalDecimal(tc.in)
		if err != nil {
			t.Fatalf("UnmarshalDecimal(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("UnmarshalDecimal(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}


func TestUnmarshalDecimal_AcceptsLiterals(t *testing.T) {
	cases := []struct {
		in       interface{}
		expected string
	}{
		{int64(1500), "1500"},
		{2.25, "2.25"},
		{json.Number("12.3400"), "12.34"},
	}
	for _, tc := range cases {
		d, err := UnmarshalDecimal(tc.in)
		if err != nil {
			t.Fatalf("UnmarshalDecimal(%v) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("UnmarshalDecimal(%v) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
	if _, err := UnmarshalDecimal(true); err == nil {
		t.Fatalf("expected error for bool")
	}
}
