package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordLookup(t *testing.T) {
	rec := Record{
		"name":          "Ann",
		"customer":      map[string]interface{}{"address": map[string]interface{}{"city": "Oslo"}},
		"owner":         Record{"email": "sam@acme.io"},
		"customer.tier": "gold",
		"tags":          []interface{}{"vip"},
	}

	tests := []struct {
		path string
		want interface{}
		ok   bool
	}{
		{"name", "Ann", true},
		{"customer.address.city", "Oslo", true},
		{"owner.email", "sam@acme.io", true},
		{"customer.tier", "gold", true},
		{"customer.zip", nil, false},
		{"tags.0", nil, false},
		{"phone", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := rec.Lookup(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordClone(t *testing.T) {
	rec := Record{"name": "Ann"}
	c := rec.Clone()
	c["name"] = "Bob"
	assert.Equal(t, "Ann", rec["name"])
}
