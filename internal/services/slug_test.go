package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Acme", "acme"},
		{"spaces", "Acme Corp", "acme-corp"},
		{"punctuation", "Acme, Inc.", "acme-inc"},
		{"consecutive separators", "Acme   --  Corp", "acme-corp"},
		{"leading and trailing junk", "  ~Acme Corp!  ", "acme-corp"},
		{"unicode stripped", "Café München", "caf-m-nchen"},
		{"digits kept", "Area 51", "area-51"},
		{"all junk", "!!!", ""},
		{"already slugged", "acme-corp", "acme-corp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugifyLongNamesAreBounded(t *testing.T) {
	long := strings.Repeat("abc ", 200)
	slug := Slugify(long)
	assert.LessOrEqual(t, len(slug), maxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestSlugCandidate(t *testing.T) {
	assert.Equal(t, "acme", slugCandidate("acme", 0))
	assert.Equal(t, "acme-1", slugCandidate("acme", 1))
	assert.Equal(t, "acme-9", slugCandidate("acme", 9))
}
