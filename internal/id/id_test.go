package id

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"project prefix", "proj"},
		{"plan prefix", "plan"},
		{"device prefix", "dev"},
		{"location prefix", "loc"},
		{"stamp prefix", "stmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.prefix)
			if err != nil {
				t.Fatalf("Generate(%q): %v", tt.prefix, err)
			}
			if !strings.HasPrefix(got, tt.prefix+"-") {
				t.Errorf("Generate(%q) = %q, want prefix %q", tt.prefix, got, tt.prefix+"-")
			}
			// prefix + "-" + 21-char nanoid
			if len(got) != len(tt.prefix)+1+21 {
				t.Errorf("Generate(%q) = %q, unexpected length %d", tt.prefix, got, len(got))
			}
		})
	}
}

func TestGenerateUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate("loc")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("rev")
	if !strings.HasPrefix(id, "rev-") {
		t.Errorf("MustGenerate = %q, want rev- prefix", id)
	}
}
