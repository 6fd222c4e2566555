package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCategorize_DefaultRules(t *testing.T) {
	c := New(DefaultRules)
	candidates := []string{"Makanan & Minuman", "Transportasi", "Hiburan", "Other"}

	tests := []struct {
		merchant, description string
		want                  string
	}{
		{"GOJEK", "perjalanan ke kantor", "Transportasi"},
		{"", "makan siang di warung", "Makanan & Minuman"},
		{"Netflix", "", "Hiburan"},
		{"Toko Bangunan", "semen", "Other"},
		// Belanja is not a candidate, so the rule is skipped.
		{"Indomaret", "", "Other"},
	}
	for _, tt := range tests {
		got, err := c.Categorize(context.Background(), tt.merchant, tt.description, candidates)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Category != tt.want {
			t.Errorf("Categorize(%q, %q) = %q, want %q", tt.merchant, tt.description, got.Category, tt.want)
		}
	}
}

func TestCategorize_UsesCandidateSpelling(t *testing.T) {
	c := New([]Rule{{Category: "food", Keywords: []string{"Bakso"}}})
	got, _ := c.Categorize(context.Background(), "Bakso Pak Kumis", "", []string{"Food"})
	if got.Category != "Food" || got.Confidence != DefaultConfidence {
		t.Errorf("unexpected suggestion: %+v", got)
	}
}

func TestLoad_Formats(t *testing.T) {
	files := map[string]string{
		"rules.yaml": "rules:\n  - category: Pets\n    keywords: [petshop, whiskas]\n    confidence: 0.9\n",
		"rules.toml": "[[rules]]\ncategory = \"Pets\"\nkeywords = [\"petshop\", \"whiskas\"]\nconfidence = 0.9\n",
		"rules.json": `{"rules":[{"category":"Pets","keywords":["petshop","whiskas"],"confidence":0.9}]}`,
	}
	dir := t.TempDir()
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			c, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if c.Len() != 1 {
				t.Fatalf("expected 1 rule, got %d", c.Len())
			}
			got, _ := c.Categorize(context.Background(), "Whiskas 1kg", "", nil)
			if got.Category != "Pets" || got.Confidence != 0.9 {
				t.Errorf("unexpected suggestion: %+v", got)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("rules: []\n"), 0o600)
	ini := filepath.Join(dir, "rules.ini")
	os.WriteFile(ini, []byte("x=1"), 0o600)

	for _, path := range []string{empty, ini, filepath.Join(dir, "missing.yaml")} {
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%s): expected error", filepath.Base(path))
		}
	}

	c, err := Load("")
	if err != nil || c.Len() != len(DefaultRules) {
		t.Errorf("empty path should load defaults, got %v", err)
	}
}
