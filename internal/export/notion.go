package export

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/pkg/notion"
)

// NotionExporter writes events as pages of a Notion database.
type NotionExporter struct {
	client notion.Client
	dbID   string
}

// NewNotionExporter creates an exporter targeting the given database.
func NewNotionExporter(client notion.Client, dbID string) *NotionExporter {
	return &NotionExporter{client: client, dbID: dbID}
}

// Export creates one page per event. It keeps going after per-event
// failures and returns an error only if every page creation failed.
func (e *NotionExporter) Export(ctx context.Context, result *model.AcquisitionResult) error {
	if len(result.Events) == 0 {
		return nil
	}

	var failed int
	for i := range result.Events {
		ev := &result.Events[i]
		if _, err := e.client.CreatePage(ctx, e.pageRequest(ev)); err != nil {
			failed++
			zap.L().Warn("export: notion page creation failed",
				zap.String("event", ev.Title), zap.Error(err))
		}
	}

	if failed == len(result.Events) {
		return eris.Errorf("export: all %d notion page creations failed", failed)
	}
	if failed > 0 {
		zap.L().Warn("export: partial notion export",
			zap.Int("failed", failed), zap.Int("total", len(result.Events)))
	}
	return nil
}

func (e *NotionExporter) pageRequest(ev *model.EventRecord) *notionapi.PageCreateRequest {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: richText(ev.Title),
		},
		"Confidence": notionapi.NumberProperty{
			Number: ev.Confidence,
		},
	}
	if ev.StartsAt != "" {
		if t, err := time.Parse("2006-01-02", ev.StartsAt); err == nil {
			start := notionapi.Date(t)
			dateProp := notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}}
			if endT, endErr := time.Parse("2006-01-02", ev.EndsAt); ev.EndsAt != "" && endErr == nil {
				end := notionapi.Date(endT)
				dateProp.Date.End = &end
			}
			props["Date"] = dateProp
		}
	}
	if ev.City != "" {
		props["City"] = notionapi.RichTextProperty{RichText: richText(ev.City)}
	}
	if ev.Country != "" {
		props["Country"] = notionapi.RichTextProperty{RichText: richText(ev.Country)}
	}
	if ev.Venue != "" {
		props["Venue"] = notionapi.RichTextProperty{RichText: richText(ev.Venue)}
	}
	if len(ev.Speakers) > 0 {
		props["Speakers"] = notionapi.RichTextProperty{RichText: richText(speakerNames(ev.Speakers))}
	}
	if ev.SourceURL != "" {
		props["Source"] = notionapi.URLProperty{URL: ev.SourceURL}
	}
	if len(ev.Topics) > 0 {
		props["Topics"] = notionapi.RichTextProperty{RichText: richText(strings.Join(ev.Topics, ", "))}
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(e.dbID),
		},
		Properties: props,
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}
