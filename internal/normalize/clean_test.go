package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"entities decoded", "Logistics &amp; Supply Chain", "Logistics & Supply Chain"},
		{"tags stripped", "<b>LogiCon</b> 2026", "LogiCon 2026"},
		{"whitespace collapsed", "LogiCon   \n\t 2026", "LogiCon 2026"},
		{"bullets trimmed", "• LogiCon 2026 •", "LogiCon 2026"},
		{"leading dash trimmed", "- Hamburg", "Hamburg"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestCleanCity(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain city kept", "Hamburg", "Hamburg"},
		{"diacritics kept", "Zürich", "Zürich"},
		{"job title rejected", "Managing Director", ""},
		{"topic vocabulary rejected", "Digital Innovation", ""},
		{"digits rejected", "Hall 4B", ""},
		{"overlong rejected", "the beautiful city of Hamburg on the river Elbe in northern Germany", ""},
		{"virtual rejected", "Online", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCity(tt.in))
		})
	}
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "Germany", CountryName("de"))
	assert.Equal(t, "Germany", CountryName("DE"))
	assert.Equal(t, "United Kingdom", CountryName("uk"))
	assert.Equal(t, "France", CountryName(" fr "))
	assert.Equal(t, "Germany", CountryName("Germany"), "full names pass through")
	assert.Equal(t, "xq", CountryName("xq"), "unknown codes pass through")
}

func TestCountryForTLD(t *testing.T) {
	assert.Equal(t, "Germany", CountryForTLD("messe-muenchen.de"))
	assert.Equal(t, "France", CountryForTLD("salon.example.fr"))
	assert.Equal(t, "", CountryForTLD("example.com"))
	assert.Equal(t, "", CountryForTLD("localhost"))
}
