package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/stagesignal/event-cli/internal/model"
)

// schemaOrgStrategy parses embedded JSON-LD event metadata out of the
// fetched HTML. Zero network calls beyond the fetch, so it always goes
// first in the chain.
type schemaOrgStrategy struct{}

// NewSchemaOrgStrategy creates the structured markup tier.
func NewSchemaOrgStrategy() Strategy {
	return &schemaOrgStrategy{}
}

func (s *schemaOrgStrategy) Name() string { return "structured_markup" }

var ldJSONRe = regexp.MustCompile(`(?is)<script[^>]+type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)

func (s *schemaOrgStrategy) Attempt(_ context.Context, target Target, page *Page) (*model.EventRecord, error) {
	if page == nil {
		return nil, eris.New("structured_markup: no page content")
	}

	for _, m := range ldJSONRe.FindAllSubmatch(page.HTML, -1) {
		if ev := findEventNode(m[1]); ev != nil {
			rec := eventFromNode(ev, target.URL)
			if rec.Title != "" || rec.Rich() {
				return rec, nil
			}
		}
	}
	return nil, nil
}

// ldNode is the subset of schema.org JSON-LD we read. Several fields vary in
// shape across sites (string vs object, object vs array), so the ambiguous
// ones stay raw until inspected.
type ldNode struct {
	Type      json.RawMessage   `json:"@type"`
	Graph     []json.RawMessage `json:"@graph"`
	Name      string            `json:"name"`
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Location  json.RawMessage   `json:"location"`
	Organizer json.RawMessage   `json:"organizer"`
	Performer json.RawMessage   `json:"performer"`
}

type ldPlace struct {
	Type    json.RawMessage `json:"@type"`
	Name    string          `json:"name"`
	Address json.RawMessage `json:"address"`
}

type ldAddress struct {
	AddressLocality string          `json:"addressLocality"`
	AddressCountry  json.RawMessage `json:"addressCountry"`
}

type ldNamed struct {
	Name string `json:"name"`
}

// findEventNode walks a JSON-LD blob — a single node, a top-level array, or
// a node holding an @graph — and returns the first Event-typed node.
func findEventNode(blob []byte) *ldNode {
	blob = []byte(strings.TrimSpace(string(blob)))
	if len(blob) == 0 {
		return nil
	}

	if blob[0] == '[' {
		var nodes []json.RawMessage
		if err := json.Unmarshal(blob, &nodes); err != nil {
			return nil
		}
		for _, n := range nodes {
			if ev := findEventNode(n); ev != nil {
				return ev
			}
		}
		return nil
	}

	var node ldNode
	if err := json.Unmarshal(blob, &node); err != nil {
		return nil
	}
	if isEventType(node.Type) {
		return &node
	}
	for _, n := range node.Graph {
		if ev := findEventNode(n); ev != nil {
			return ev
		}
	}
	return nil
}

// isEventType accepts "Event" and its schema.org subtypes (BusinessEvent,
// ExhibitionEvent, ...), whether declared as a string or a type array.
func isEventType(raw json.RawMessage) bool {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.Contains(single, "Event")
	}
	var multi []string
	if err := json.Unmarshal(raw, &multi); err == nil {
		for _, t := range multi {
			if strings.Contains(t, "Event") {
				return true
			}
		}
	}
	return false
}

func eventFromNode(node *ldNode, sourceURL string) *model.EventRecord {
	rec := &model.EventRecord{
		SourceURL: sourceURL,
		Title:     strings.TrimSpace(node.Name),
		StartsAt:  node.StartDate,
		EndsAt:    node.EndDate,
	}

	if place := parsePlace(node.Location); place != nil {
		rec.Venue = strings.TrimSpace(place.Name)
		if addr := parseAddress(place.Address); addr != nil {
			rec.City = strings.TrimSpace(addr.AddressLocality)
			rec.Country = countryName(addr.AddressCountry)
		}
	}
	if org := parseNamed(node.Organizer); org != "" {
		rec.Organizer = org
	}
	for _, name := range parseNamedList(node.Performer) {
		rec.Speakers = append(rec.Speakers, model.SpeakerRecord{Name: name, SourceURL: sourceURL})
	}
	return rec
}

func parsePlace(raw json.RawMessage) *ldPlace {
	if len(raw) == 0 {
		return nil
	}
	var place ldPlace
	if err := json.Unmarshal(raw, &place); err == nil && (place.Name != "" || len(place.Address) > 0) {
		return &place
	}
	var places []ldPlace
	if err := json.Unmarshal(raw, &places); err == nil && len(places) > 0 {
		return &places[0]
	}
	// Bare string location: treat as venue name.
	var name string
	if err := json.Unmarshal(raw, &name); err == nil && name != "" {
		return &ldPlace{Name: name}
	}
	return nil
}

func parseAddress(raw json.RawMessage) *ldAddress {
	if len(raw) == 0 {
		return nil
	}
	var addr ldAddress
	if err := json.Unmarshal(raw, &addr); err == nil {
		return &addr
	}
	return nil
}

// countryName reads addressCountry, which is either a code/name string or a
// {"name": ...} object.
func countryName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n ldNamed
	if err := json.Unmarshal(raw, &n); err == nil {
		return strings.TrimSpace(n.Name)
	}
	return ""
}

// parseNamed reads a person/org field that is a string, object, or array;
// returns the first name found.
func parseNamed(raw json.RawMessage) string {
	names := parseNamedList(raw)
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

func parseNamedList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return []string{s}
		}
		return nil
	}
	var n ldNamed
	if err := json.Unmarshal(raw, &n); err == nil && strings.TrimSpace(n.Name) != "" {
		return []string{strings.TrimSpace(n.Name)}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var names []string
		for _, item := range list {
			names = append(names, parseNamedList(item)...)
		}
		return names
	}
	return nil
}
