package pipeline

import (
	"strings"
	"time"

	"crm-pipeline/internal/model"
	"crm-pipeline/pkg/utils"
)

// Comparator orders two records: negative, zero or positive.
type Comparator func(a, b model.Record) int

const (
	kindAuto   = ""
	kindDate   = "date"
	kindString = "string"
	kindNumber = "number"
)

// BuildComparator converts a sort key and direction into an ordering.
// Date-like keys (by name or Type tag) compare as instants, strings
// case-insensitively, everything else numerically. In a column mixing
// numbers and text, numbers order before text. Missing or
// unparseable values order first ascending. Ties return 0 so a stable
// sort keeps input order in either direction.
func BuildComparator(spec model.SortSpec) Comparator {
	kind := sortKind(spec)
	key := spec.Key
	desc := strings.EqualFold(string(spec.Direction), string(model.SortDesc))

	return func(a, b model.Record) int {
		av, _ := a.Lookup(key)
		bv, _ := b.Lookup(key)
		c := compareValues(av, bv, kind)
		if desc {
			return -c
		}
		return c
	}
}

func sortKind(spec model.SortSpec) string {
	switch strings.ToLower(spec.Type) {
	case kindDate, kindString, kindNumber:
		return strings.ToLower(spec.Type)
	}
	if isDateKey(spec.Key) {
		return kindDate
	}
	return kindAuto
}

func compareValues(a, b interface{}, kind string) int {
	switch kind {
	case kindDate:
		ta, okA := parseDate(a, time.UTC)
		tb, okB := parseDate(b, time.UTC)
		if c, done := comparePresence(okA, okB); done {
			return c
		}
		return ta.Compare(tb)
	case kindNumber:
		fa, okA := utils.ToFloat(a)
		fb, okB := utils.ToFloat(b)
		if c, done := comparePresence(okA, okB); done {
			return c
		}
		return compareFloats(fa, fb)
	case kindString:
		if c, done := comparePresence(a != nil, b != nil); done {
			return c
		}
		return compareStrings(a, b)
	}

	if c, done := comparePresence(a != nil, b != nil); done {
		return c
	}
	numA, numB := utils.IsNumber(a), utils.IsNumber(b)
	switch {
	case numA && numB:
		return compareFloats(utils.Numeric(a), utils.Numeric(b))
	case numA:
		return -1
	case numB:
		return 1
	}
	return compareStrings(a, b)
}

// comparePresence orders absent values first; done is false when both are present.
func comparePresence(okA, okB bool) (int, bool) {
	switch {
	case !okA && !okB:
		return 0, true
	case !okA:
		return -1, true
	case !okB:
		return 1, true
	}
	return 0, false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareStrings(a, b interface{}) int {
	sa := strings.ToLower(utils.FormatValue(a))
	sb := strings.ToLower(utils.FormatValue(b))
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}
