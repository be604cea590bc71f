package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageWith(html string) *Page {
	return &Page{URL: "https://expo.example.com/event", HTML: []byte(html), Text: stripHTML(html)}
}

func TestSchemaOrg_PlainEventNode(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{
	  "@context": "https://schema.org",
	  "@type": "Event",
	  "name": "LogiCon 2026",
	  "startDate": "2026-09-18T09:00:00+02:00",
	  "endDate": "2026-09-19",
	  "location": {
	    "@type": "Place",
	    "name": "Messehalle Hamburg",
	    "address": {"addressLocality": "Hamburg", "addressCountry": "DE"}
	  },
	  "organizer": {"@type": "Organization", "name": "LogiCon GmbH"},
	  "performer": [{"@type": "Person", "name": "Jane Doe"}, {"@type": "Person", "name": "John Roe"}]
	}
	</script></head><body></body></html>`

	s := NewSchemaOrgStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: "https://expo.example.com/event"}, pageWith(html))

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "LogiCon 2026", rec.Title)
	assert.Equal(t, "2026-09-18T09:00:00+02:00", rec.StartsAt, "raw value; the normalizer truncates")
	assert.Equal(t, "Messehalle Hamburg", rec.Venue)
	assert.Equal(t, "Hamburg", rec.City)
	assert.Equal(t, "DE", rec.Country)
	assert.Equal(t, "LogiCon GmbH", rec.Organizer)
	require.Len(t, rec.Speakers, 2)
	assert.Equal(t, "Jane Doe", rec.Speakers[0].Name)
	assert.True(t, rec.Rich())
}

func TestSchemaOrg_EventInsideGraph(t *testing.T) {
	html := `<script type='application/ld+json'>
	{"@context":"https://schema.org","@graph":[
	  {"@type":"WebSite","name":"Expo Site"},
	  {"@type":"BusinessEvent","name":"FreightTech Expo","startDate":"2026-03-02",
	   "location":{"@type":"Place","name":"Koelnmesse","address":{"addressLocality":"Cologne","addressCountry":{"@type":"Country","name":"Germany"}}}}
	]}
	</script>`

	s := NewSchemaOrgStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: "https://x.example.com"}, pageWith(html))

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "FreightTech Expo", rec.Title)
	assert.Equal(t, "Cologne", rec.City)
	assert.Equal(t, "Germany", rec.Country)
}

func TestSchemaOrg_TopLevelArrayAndTypeArray(t *testing.T) {
	html := `<script type="application/ld+json">
	[{"@type":"Organization","name":"Acme"},
	 {"@type":["Event","ExhibitionEvent"],"name":"Anuga 2027","startDate":"2027-10-09","location":"Cologne Fairgrounds"}]
	</script>`

	s := NewSchemaOrgStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: "https://x.example.com"}, pageWith(html))

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Anuga 2027", rec.Title)
	assert.Equal(t, "Cologne Fairgrounds", rec.Venue, "bare string location becomes the venue")
}

func TestSchemaOrg_NoEventMarkup(t *testing.T) {
	html := `<script type="application/ld+json">{"@type":"Organization","name":"Acme"}</script>`

	s := NewSchemaOrgStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: "https://x.example.com"}, pageWith(html))

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSchemaOrg_MalformedJSONIgnored(t *testing.T) {
	html := `<script type="application/ld+json">{not json at all</script>
	<script type="application/ld+json">{"@type":"Event","name":"Good Event","startDate":"2026-01-01"}</script>`

	s := NewSchemaOrgStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: "https://x.example.com"}, pageWith(html))

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Good Event", rec.Title)
}

func TestSchemaOrg_NilPage(t *testing.T) {
	s := NewSchemaOrgStrategy()
	rec, err := s.Attempt(context.Background(), Target{URL: "https://x.example.com"}, nil)

	assert.Error(t, err)
	assert.Nil(t, rec)
}
