package source

import (
	"fmt"
	"strings"
	"unicode"

	"crm-pipeline/internal/model"
)

type transformFunc func(rec model.Record) model.Record

// transforms are applied to a copy of each record at ingestion time.
// The pipeline itself never mutates records.
var transforms = map[string]transformFunc{
	"trimStrings":        mapStrings(strings.TrimSpace),
	"convertToLowercase": mapStrings(strings.ToLower),
	"convertToUppercase": mapStrings(strings.ToUpper),
	"normalizeNames":     normalizeNames,
	"removeNulls":        removeNulls,
}

// ValidateTransforms rejects unknown transform names.
func ValidateTransforms(names []string) error {
	for _, name := range names {
		if _, ok := transforms[name]; !ok {
			return fmt.Errorf("unknown transformation: %s", name)
		}
	}
	return nil
}

// ApplyTransforms runs the named transforms, in order, on copies of the
// input records. The input slice and its records are left untouched.
func ApplyTransforms(records []model.Record, names []string) ([]model.Record, error) {
	if len(names) == 0 {
		return records, nil
	}
	if err := ValidateTransforms(names); err != nil {
		return nil, err
	}

	out := make([]model.Record, len(records))
	for i, rec := range records {
		result := rec.Clone()
		for _, name := range names {
			result = transforms[name](result)
		}
		out[i] = result
	}
	return out, nil
}

// mapStrings applies fn to every top-level string value.
func mapStrings(fn func(string) string) transformFunc {
	return func(rec model.Record) model.Record {
		for key, val := range rec {
			if str, ok := val.(string); ok {
				rec[key] = fn(str)
			}
		}
		return rec
	}
}

// normalizeNames title-cases fields that hold person or company names.
func normalizeNames(rec model.Record) model.Record {
	for key, val := range rec {
		str, ok := val.(string)
		if !ok || !isNameLikeField(strings.ToLower(key)) {
			continue
		}
		rec[key] = titleCase(str)
	}
	return rec
}

func isNameLikeField(fieldName string) bool {
	namePatterns := []string{
		"name", "customer", "company", "organization", "owner",
		"agent", "assignee", "sender", "city", "country",
	}
	for _, pattern := range namePatterns {
		if strings.Contains(fieldName, pattern) {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func removeNulls(rec model.Record) model.Record {
	for key, val := range rec {
		if val == nil {
			delete(rec, key)
		}
	}
	return rec
}
