// Package model defines the domain types shared across the acquisition pipeline.
package model

// EventRecord is a structured industry event extracted from a single source
// page. SourceURL is the identity key; dates are ISO YYYY-MM-DD without a
// time component.
type EventRecord struct {
	SourceURL         string          `json:"source_url"`
	Title             string          `json:"title"`
	StartsAt          string          `json:"starts_at,omitempty"`
	EndsAt            string          `json:"ends_at,omitempty"`
	City              string          `json:"city,omitempty"`
	Country           string          `json:"country,omitempty"`
	Venue             string          `json:"venue,omitempty"`
	Organizer         string          `json:"organizer,omitempty"`
	Topics            []string        `json:"topics,omitempty"`
	Speakers          []SpeakerRecord `json:"speakers,omitempty"`
	Sponsors          []string        `json:"sponsors,omitempty"`
	ParticipatingOrgs []string        `json:"participating_organizations,omitempty"`
	Partners          []string        `json:"partners,omitempty"`
	Competitors       []string        `json:"competitors,omitempty"`
	Confidence        float64         `json:"confidence"`
}

// SpeakerRecord is a person attached to one or more events. Identity for
// deduplication is the case-insensitive name plus organization.
type SpeakerRecord struct {
	Name           string   `json:"name"`
	Org            string   `json:"org,omitempty"`
	Title          string   `json:"title,omitempty"`
	ProfileURL     string   `json:"profile_url,omitempty"`
	SourceURL      string   `json:"source_url,omitempty"`
	Confidence     float64  `json:"confidence"`
	Bio            string   `json:"bio,omitempty"`
	ExpertiseAreas []string `json:"expertise_areas,omitempty"`
}

// Rich reports whether the record carries enough location/date substance to
// stop the extraction tier chain: at least one of start date, city, country,
// or venue.
func (e *EventRecord) Rich() bool {
	return e.StartsAt != "" || e.City != "" || e.Country != "" || e.Venue != ""
}
