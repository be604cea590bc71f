package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic_GermanEventPage(t *testing.T) {
	page := &Page{
		URL:   "https://messe.example.de/logistik",
		Title: "Intralogistik Fachmesse Stuttgart",
		Text:  "Die Fachmesse für Intralogistik findet am 18./19.09.2026 in Stuttgart statt. Veranstaltungsort: Messe Stuttgart. Veranstalter: Expo GmbH",
	}

	s := NewHeuristicStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: page.URL, Locale: "de"}, page)

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Intralogistik Fachmesse Stuttgart", rec.Title)
	assert.Equal(t, "2026-09-18", rec.StartsAt)
	assert.Equal(t, "2026-09-19", rec.EndsAt)
	assert.Equal(t, "Stuttgart", rec.City)
	assert.Equal(t, "Messe Stuttgart", rec.Venue)
	assert.Equal(t, "Expo GmbH", rec.Organizer)
	assert.True(t, rec.Rich())
}

func TestHeuristic_EnglishNamedMonth(t *testing.T) {
	page := &Page{
		URL:   "https://summit.example.com",
		Title: "Global Freight Summit",
		Text:  "Join us on September 25, 2026 at the Exhibition Centre. The summit takes place at the Exhibition Centre London. Organized by Freight Media Ltd",
	}

	s := NewHeuristicStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: page.URL}, page)

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2026-09-25", rec.StartsAt)
	assert.Equal(t, "London", rec.City, "gazetteer hit")
	assert.Equal(t, "Freight Media Ltd", rec.Organizer)
}

func TestHeuristic_GazetteerBeatsPattern(t *testing.T) {
	page := &Page{
		URL:  "https://conf.example.com",
		Text: "The conference in Partnership with Acme takes place in München on 01.03.2026.",
	}

	s := NewHeuristicStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: page.URL}, page)

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Munich", rec.City, "gazetteer canonicalizes the spelling")
}

func TestFindCity_EarliestMentionWins(t *testing.T) {
	// Two gazetteer cities: the one mentioned first is the event's city,
	// later mentions are usually related-event noise.
	text := "The expo returns to Hamburg this year, after editions in Berlin and Vienna."

	for i := 0; i < 20; i++ {
		assert.Equal(t, "Hamburg", findCity(text))
	}
}

func TestHeuristic_NothingFound(t *testing.T) {
	page := &Page{
		URL:  "https://blog.example.com",
		Text: "thoughts on warehouse shelving",
	}

	s := NewHeuristicStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: page.URL}, page)

	require.NoError(t, err)
	assert.Nil(t, rec, "no title and nothing rich means no result")
}

func TestHeuristic_NilPage(t *testing.T) {
	s := NewHeuristicStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: "https://x.example.com"}, nil)

	assert.Error(t, err)
	assert.Nil(t, rec)
}

func TestStubRecord(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantTitle   string
		wantCountry string
	}{
		{"path segment", "https://messe.example.de/en/logistik-kongress-2026/", "logistik kongress 2026", "Germany"},
		{"html suffix stripped", "https://expo.example.fr/salon.html", "salon", "France"},
		{"index skipped to host", "https://www.expo.example.com/index.html", "expo.example.com", ""},
		{"bare host", "https://conference.example.co", "conference.example.co", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := stubRecord(Target{URL: tt.url})
			assert.Equal(t, tt.wantTitle, rec.Title)
			assert.Equal(t, tt.wantCountry, rec.Country)
			assert.Equal(t, tt.url, rec.SourceURL)
		})
	}
}

func TestStripHTML(t *testing.T) {
	html := `<html><head><script>var x = 1;</script><style>p{}</style></head>
	<body><nav>Menu</nav><p>Hello &amp; welcome</p><footer>Imprint</footer></body></html>`

	text := stripHTML(html)

	assert.Contains(t, text, "Hello & welcome")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "Menu")
	assert.NotContains(t, text, "Imprint")
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "LogiCon 2026", extractTitle([]byte(`<html><title> LogiCon 2026 </title></html>`)))
	assert.Equal(t, "", extractTitle([]byte(`<html><body>no title</body></html>`)))
}
