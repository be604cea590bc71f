// Package extract turns candidate URLs into event records through a chain
// of tiers: structured markup, managed extraction service, heuristic regex,
// and a synthesized stub. Every requested URL yields exactly one record.
package extract

import (
	"context"

	"github.com/stagesignal/event-cli/internal/model"
)

// Target is one URL queued for extraction, with a locale hint for the
// heuristic tier's date parsing.
type Target struct {
	URL    string
	Locale string
}

// Strategy is one extraction tier. Attempt receives the fetched page, which
// is nil when the local fetch failed; tiers that need page content must
// return an error in that case so the chain can move on. A nil record with
// a nil error means the tier found nothing on a perfectly good page.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, target Target, page *Page) (*model.EventRecord, error)
}
