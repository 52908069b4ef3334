package model

import "strings"

// Record is one row of list data (a lead, case or email). The schema
// varies per entity; values are strings, numbers, ISO-8601 date strings
// or nested objects.
type Record map[string]interface{}

// Lookup resolves a field by name. Dotted paths descend into nested
// objects ("customer.name"); an exact top-level key always wins.
func (r Record) Lookup(path string) (interface{}, bool) {
	if v, ok := r[path]; ok {
		return v, true
	}
	if !strings.Contains(path, ".") {
		return nil, false
	}

	var cur interface{} = map[string]interface{}(r)
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]interface{}:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case Record:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// GroupCount is one bucket of a value distribution.
type GroupCount struct {
	Value string `json:"name"`
	Count int    `json:"value"`
}
