package dfd

import "testing"

func TestParseComponentType(t *testing.T) {
	valid := []string{"tenancy", "container", "network", "gateway", "compute", "storage", "actor"}
	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			got, err := ParseComponentType(s)
			if err != nil {
				t.Fatalf("ParseComponentType(%q) error = %v", s, err)
			}
			if string(got) != s {
				t.Errorf("ParseComponentType(%q) = %q, want %q", s, got, s)
			}
		})
	}
}

func TestParseComponentTypeInvalid(t *testing.T) {
	for _, s := range []string{"unknown_type", "Compute", "vpc", ""} {
		t.Run(s, func(t *testing.T) {
			if _, err := ParseComponentType(s); err == nil {
				t.Errorf("ParseComponentType(%q) error = nil, want error", s)
			}
		})
	}
}

func TestComponentTypeIsBoundary(t *testing.T) {
	tests := []struct {
		typ  ComponentType
		want bool
	}{
		{TypeTenancy, true},
		{TypeContainer, true},
		{TypeNetwork, true},
		{TypeGateway, false},
		{TypeCompute, false},
		{TypeStorage, false},
		{TypeActor, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.IsBoundary(); got != tt.want {
				t.Errorf("IsBoundary() = %v, want %v", got, tt.want)
			}
		})
	}
}
