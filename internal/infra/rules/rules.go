// Package rules is the keyword categorizer used when the AI categorizer
// is unavailable or unsure.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// DefaultConfidence is used for rules that do not set one.
const DefaultConfidence = 0.8

// Rule maps keywords found in a merchant name or description to a
// category name.
type Rule struct {
	Category   string   `json:"category" yaml:"category" toml:"category"`
	Keywords   []string `json:"keywords" yaml:"keywords" toml:"keywords"`
	Confidence float64  `json:"confidence,omitempty" yaml:"confidence,omitempty" toml:"confidence,omitempty"`
}

// File is the on-disk layout of a rules file.
type File struct {
	Rules []Rule `json:"rules" yaml:"rules" toml:"rules"`
}

// DefaultRules cover the seeded categories.
var DefaultRules = []Rule{
	{Category: "Makanan & Minuman", Keywords: []string{"makan", "resto", "warung", "kopi", "coffee", "bakso", "gofood", "grabfood", "shopeefood", "mcd", "kfc", "starbucks", "janji jiwa"}},
	{Category: "Transportasi", Keywords: []string{"gojek", "goride", "grab", "grabbike", "grabcar", "bensin", "pertamina", "shell", "parkir", "tol", "krl", "mrt", "transjakarta", "kai"}},
	{Category: "Belanja", Keywords: []string{"indomaret", "alfamart", "tokopedia", "shopee", "lazada", "supermarket", "hypermart", "belanja"}},
	{Category: "Tagihan & Utilitas", Keywords: []string{"pln", "listrik", "pdam", "indihome", "internet", "pulsa", "telkomsel", "bpjs", "wifi"}},
	{Category: "Hiburan", Keywords: []string{"netflix", "spotify", "youtube premium", "disney", "bioskop", "xxi", "cgv", "steam"}},
	{Category: "Kesehatan", Keywords: []string{"apotek", "kimia farma", "klinik", "dokter", "rumah sakit", "halodoc"}},
	{Category: "Gaji", Keywords: []string{"gaji", "salary", "payroll", "thr"}},
}

// Categorizer matches keywords against merchant and description.
type Categorizer struct {
	rules []Rule
}

// New returns a categorizer over rules, lower-casing keywords once.
func New(rules []Rule) *Categorizer {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Category) == "" {
			continue
		}
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		if r.Confidence <= 0 || r.Confidence > 1 {
			r.Confidence = DefaultConfidence
		}
		r.Keywords = kw
		out = append(out, r)
	}
	return &Categorizer{rules: out}
}

// Load reads rules from a YAML, TOML or JSON file chosen by extension.
// An empty path returns DefaultRules.
func Load(path string) (*Categorizer, error) {
	if path == "" {
		return New(DefaultRules), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported rules file format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s has no rules", path)
	}
	return New(f.Rules), nil
}

// Len returns the number of usable rules.
func (c *Categorizer) Len() int { return len(c.rules) }

// Categorize returns the first rule whose keyword appears in the text and
// whose category is one of candidates (any category when candidates is
// empty). No match is a zero-confidence "Other" suggestion, not an error.
func (c *Categorizer) Categorize(_ context.Context, merchantName, description string, candidates []string) (*domain.CategorySuggestion, error) {
	text := " " + strings.ToLower(merchantName+" "+description) + " "

	allowed := make(map[string]string, len(candidates))
	for _, name := range candidates {
		allowed[strings.ToLower(name)] = name
	}

	for _, r := range c.rules {
		name := r.Category
		if len(allowed) > 0 {
			n, ok := allowed[strings.ToLower(name)]
			if !ok {
				continue
			}
			name = n
		}
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return &domain.CategorySuggestion{
					Category:   name,
					Confidence: r.Confidence,
					Reason:     "keyword " + kw,
				}, nil
			}
		}
	}
	return &domain.CategorySuggestion{Category: domain.OtherCategoryName}, nil
}
