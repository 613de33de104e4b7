// Package suggestions completes bean form fields from the beans a user has
// already saved, so "La Cabra" is not typed three different ways.
package suggestions

import (
	"sort"
	"strings"

	"shotlog/internal/models"
)

// Field is a bean form field that can be completed.
type Field string

const (
	FieldBrand   Field = "brand"
	FieldName    Field = "name"
	FieldProcess Field = "process"
)

// Fields lists the completable fields.
var Fields = []Field{FieldBrand, FieldName, FieldProcess}

// MinQueryLength is the shortest query that yields suggestions.
const MinQueryLength = 2

// DefaultLimit caps results when no limit is given.
const DefaultLimit = 10

// Suggestion is one completion and the number of beans that use it.
type Suggestion struct {
	Value string   `json:"value"`
	Count int      `json:"count"`
	Beans []string `json:"beans"`
}

// fieldConfig defines how a field is read and which spellings merge
type fieldConfig struct {
	value    func(b *models.Bean) string
	dedupKey func(v string) string
}

var fieldConfigs = map[Field]fieldConfig{
	FieldBrand: {
		value:    func(b *models.Bean) string { return b.Brand },
		dedupKey: fuzzyName,
	},
	FieldName: {
		value:    func(b *models.Bean) string { return b.Name },
		dedupKey: normalize,
	},
	// Free-text processes only; the fixed choices come from the options list.
	FieldProcess: {
		value: func(b *models.Bean) string {
			if b.Process == models.ProcessOther {
				return b.ProcessOther
			}
			return ""
		},
		dedupKey: normalize,
	},
}

// ParseField reports whether s names a completable field.
func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	_, ok := fieldConfigs[f]
	return f, ok
}

// --- Normalization helpers ---

// normalize folds case, Nordic letters and punctuation, so "Blå Bær" and
// "blaa baer" share a key.
func normalize(s string) string {
	return models.SlugText(s)
}

// Common suffixes stripped during fuzzy brand normalization.
// Order matters: longer suffixes first to avoid partial stripping.
var commonSuffixes = []string{
	"coffee roasters",
	"coffee roasting",
	"coffee company",
	"coffee co",
	"roasting company",
	"roasting co",
	"kafferisteri",
	"kaffebar",
	"roasters",
	"roastery",
	"roasting",
	"coffee",
	"kaffe",
	"co.",
}

// fuzzyName normalizes a brand by stripping one common roaster suffix before
// normalizing. "Coffee Collective" and "Coffee Collective Roasters" merge;
// "April" and "April Coffee" merge too.
func fuzzyName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	for _, suffix := range commonSuffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break // only strip one suffix
		}
	}

	return normalize(s)
}

// Search returns completions for field from beans. A value matches when it
// contains the query, case-insensitively. Spellings with the same key merge
// under the most used one; results sort prefix matches first, then by count,
// then alphabetically.
func Search(beans []*models.Bean, field Field, query string, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultLimit
	}

	config, ok := fieldConfigs[field]
	if !ok {
		return nil
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(queryLower)) < MinQueryLength {
		return nil
	}

	// dedupKey -> aggregated suggestion
	type candidate struct {
		suggestion Suggestion
		spellings  map[string]int
	}
	candidates := make(map[string]*candidate)
	var order []string

	for _, b := range beans {
		val := strings.TrimSpace(config.value(b))
		if val == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(val), queryLower) {
			continue
		}

		key := config.dedupKey(val)
		if key == "" {
			continue
		}

		c, ok := candidates[key]
		if !ok {
			c = &candidate{spellings: make(map[string]int)}
			candidates[key] = c
			order = append(order, key)
		}
		c.spellings[val]++
		c.suggestion.Count++
		c.suggestion.Beans = append(c.suggestion.Beans, b.ID)

		// Keep the most used spelling; the first seen wins ties
		if c.suggestion.Value == "" || c.spellings[val] > c.spellings[c.suggestion.Value] {
			c.suggestion.Value = val
		}
	}

	results := make([]Suggestion, 0, len(candidates))
	for _, key := range order {
		results = append(results, candidates[key].suggestion)
	}

	sort.SliceStable(results, func(i, j int) bool {
		iPrefix := strings.HasPrefix(strings.ToLower(results[i].Value), queryLower)
		jPrefix := strings.HasPrefix(strings.ToLower(results[j].Value), queryLower)
		if iPrefix != jPrefix {
			return iPrefix
		}
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return strings.ToLower(results[i].Value) < strings.ToLower(results[j].Value)
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results
}
