package utils

import (
	"net/http"
	"testing"
)

func TestEncodeLogicalName(t *testing.T) {
	cases := []struct {
		raw      string
		scope    []string
		expected string
	}{
		{"Cola", []string{"b1", "t1"}, "Cola|b1|t1"},
		{"Drinks", []string{"t1"}, "Drinks|t1"},
		{"Cola", []string{"", "t1"}, "Cola||t1"},
		{"Cola", nil, "Cola"},
	}
	for _, tc := range cases {
		got, err := EncodeLogicalName(tc.raw, tc.scope...)
		if err != nil {
			t.Fatalf("EncodeLogicalName(%q, %v) error: %v", tc.raw, tc.scope, err)
		}
		if got != tc.expected {
			t.Fatalf("EncodeLogicalName(%q, %v) expected %q, got %q", tc.raw, tc.scope, tc.expected, got)
		}
	}
}

func TestEncodeLogicalName_RejectsSeparatorAndBlank(t *testing.T) {
	cases := []struct {
		raw   string
		scope []string
	}{
		{"A|B", []string{"t1"}},
		{"Cola", []string{"b|1", "t1"}},
		{"", []string{"t1"}},
		{"   ", []string{"t1"}},
	}
	for _, tc := range cases {
		_, err := EncodeLogicalName(tc.raw, tc.scope...)
		if be := AsBusinessError(err); be == nil || be.Code != http.StatusBadRequest {
			t.Fatalf("EncodeLogicalName(%q, %v) expected bad request, got %v", tc.raw, tc.scope, err)
		}
	}
}

func TestEncodeLogicalName_DistinctTenantsDistinctKeys(t *testing.T) {
	a, err := EncodeLogicalName("Cola", "b1", "t1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeLogicalName("Cola", "b1", "t2")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("expected different keys for different tenants, both %q", a)
	}
}
