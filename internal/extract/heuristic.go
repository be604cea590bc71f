package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/internal/normalize"
)

// cityGazetteer lists cities that host the bulk of the industry events we
// see. Gazetteer hits beat pattern matches because they need no context.
var cityGazetteer = map[string]string{
	"amsterdam": "Amsterdam", "atlanta": "Atlanta", "austin": "Austin",
	"barcelona": "Barcelona", "berlin": "Berlin", "boston": "Boston",
	"brussels": "Brussels", "chicago": "Chicago", "cologne": "Cologne",
	"copenhagen": "Copenhagen", "dubai": "Dubai", "dublin": "Dublin",
	"düsseldorf": "Düsseldorf", "duesseldorf": "Düsseldorf",
	"frankfurt": "Frankfurt", "geneva": "Geneva", "hamburg": "Hamburg",
	"hannover": "Hannover", "helsinki": "Helsinki", "köln": "Cologne",
	"las vegas": "Las Vegas", "lisbon": "Lisbon", "london": "London",
	"los angeles": "Los Angeles", "madrid": "Madrid", "milan": "Milan",
	"munich": "Munich", "münchen": "Munich", "new york": "New York",
	"nuremberg": "Nuremberg", "nürnberg": "Nuremberg", "paris": "Paris",
	"rotterdam": "Rotterdam", "san francisco": "San Francisco",
	"shanghai": "Shanghai", "singapore": "Singapore", "stockholm": "Stockholm",
	"stuttgart": "Stuttgart", "sydney": "Sydney", "tokyo": "Tokyo",
	"toronto": "Toronto", "vienna": "Vienna", "wien": "Vienna",
	"zurich": "Zurich", "zürich": "Zurich",
}

// gazetteerKeys is the gazetteer in sorted order so text scans are
// deterministic when a page mentions several cities.
var gazetteerKeys = func() []string {
	keys := make([]string, 0, len(cityGazetteer))
	for k := range cityGazetteer {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}()

var (
	// "in Hamburg, Germany" / "in Hamburg statt"
	inCityRe = regexp.MustCompile(`(?i)\bin\s+(\p{Lu}[\p{L}\-]+(?:\s\p{Lu}[\p{L}\-]+)?)\s*(?:,\s*(\p{Lu}[\p{L}\s]+?)\b)?`)
	// "Venue: Messe Berlin" / "Veranstaltungsort: ..." / "Lieu : ..."
	venueRe = regexp.MustCompile(`(?i)\b(?:venue|location|veranstaltungsort|lieu)\s*:?\s+([^\n.,;]{3,60})`)
	// "takes place at the Exhibition Centre"
	takesPlaceRe = regexp.MustCompile(`(?i)\btakes\s+place\s+at\s+(?:the\s+)?([^\n.,;]{3,60})`)
	// "organized by Acme Events"
	organizerRe = regexp.MustCompile(`(?i)\b(?:organi[sz]ed\s+by|veranstalter\s*:?|organis[ée]\s+par)\s+([^\n.,;]{3,60})`)
)

// heuristicStrategy runs date, city, venue, and organizer pattern matchers
// over the stripped page text. It costs nothing but catches less than the
// tiers above it.
type heuristicStrategy struct{}

// NewHeuristicStrategy creates the regex tier.
func NewHeuristicStrategy() Strategy {
	return &heuristicStrategy{}
}

func (h *heuristicStrategy) Name() string { return "heuristic_regex" }

func (h *heuristicStrategy) Attempt(_ context.Context, target Target, page *Page) (*model.EventRecord, error) {
	if page == nil {
		return nil, eris.New("heuristic_regex: no page content")
	}

	rec := &model.EventRecord{
		SourceURL: target.URL,
		Title:     page.Title,
	}

	// Scan the title and the leading text first: dates near the top of an
	// event page are almost always the event's own dates, while the long
	// tail is full of news teasers and footer noise.
	head := page.Title + "\n" + firstN(page.Text, 4000)
	rec.StartsAt, rec.EndsAt = normalize.ToISODateRange(head)
	if rec.StartsAt == "" {
		rec.StartsAt, rec.EndsAt = normalize.ToISODateRange(page.Text)
	}

	rec.City = findCity(head)
	if rec.City == "" {
		rec.City = findCity(page.Text)
	}

	if m := venueRe.FindStringSubmatch(page.Text); m != nil {
		rec.Venue = normalize.CleanText(m[1])
	} else if m := takesPlaceRe.FindStringSubmatch(page.Text); m != nil {
		rec.Venue = normalize.CleanText(m[1])
	}
	if m := organizerRe.FindStringSubmatch(page.Text); m != nil {
		rec.Organizer = normalize.CleanText(m[1])
	}

	if !rec.Rich() && rec.Title == "" {
		return nil, nil
	}
	return rec, nil
}

// findCity looks for the gazetteer city mentioned earliest in the text, then
// falls back to "in <City>[, <Country>]" patterns filtered for noise.
func findCity(text string) string {
	lower := strings.ToLower(text)
	best, bestIdx := "", -1
	for _, key := range gazetteerKeys {
		idx := indexWord(lower, key)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx {
			best, bestIdx = cityGazetteer[key], idx
		}
	}
	if best != "" {
		return best
	}

	for _, m := range inCityRe.FindAllStringSubmatch(text, 10) {
		if city := normalize.CleanCity(m[1]); city != "" {
			return city
		}
	}
	return ""
}

// indexWord returns the index of the first occurrence of needle in haystack
// on word boundaries, or -1.
func indexWord(haystack, needle string) int {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return -1
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isLetter(haystack[start-1])
		afterOK := end == len(haystack) || !isLetter(haystack[end])
		if beforeOK && afterOK {
			return start
		}
		idx = end
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
