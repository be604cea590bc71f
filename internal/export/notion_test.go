package export

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagesignal/event-cli/internal/model"
)

type fakeNotion struct {
	requests []*notionapi.PageCreateRequest
	failFor  map[string]bool // event title -> fail
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.requests = append(f.requests, req)
	title := req.Properties["Name"].(notionapi.TitleProperty).Title[0].Text.Content
	if f.failFor[title] {
		return nil, eris.New("boom")
	}
	return &notionapi.Page{}, nil
}

func TestNotionExport(t *testing.T) {
	client := &fakeNotion{}
	e := NewNotionExporter(client, "db-123")

	require.NoError(t, e.Export(context.Background(), sampleResult()))
	require.Len(t, client.requests, 2)

	req := client.requests[0]
	assert.Equal(t, notionapi.DatabaseID("db-123"), req.Parent.DatabaseID)

	date := req.Properties["Date"].(notionapi.DateProperty)
	require.NotNil(t, date.Date.Start)
	require.NotNil(t, date.Date.End)

	city := req.Properties["City"].(notionapi.RichTextProperty)
	assert.Equal(t, "Hamburg", city.RichText[0].Text.Content)

	conf := req.Properties["Confidence"].(notionapi.NumberProperty)
	assert.Equal(t, 0.85, conf.Number)

	// Second event has no date or city; those properties must be absent.
	sparse := client.requests[1].Properties
	assert.NotContains(t, sparse, "Date")
	assert.NotContains(t, sparse, "City")
	assert.Contains(t, sparse, "Source")
}

func TestNotionExport_PartialFailureTolerated(t *testing.T) {
	client := &fakeNotion{failFor: map[string]bool{"Freight Expo": true}}
	e := NewNotionExporter(client, "db-123")

	assert.NoError(t, e.Export(context.Background(), sampleResult()))
}

func TestNotionExport_TotalFailure(t *testing.T) {
	client := &fakeNotion{failFor: map[string]bool{
		"Logistics Summit 2026": true,
		"Freight Expo":          true,
	}}
	e := NewNotionExporter(client, "db-123")

	assert.Error(t, e.Export(context.Background(), sampleResult()))
}

func TestNotionExport_Empty(t *testing.T) {
	client := &fakeNotion{}
	e := NewNotionExporter(client, "db-123")

	require.NoError(t, e.Export(context.Background(), &model.AcquisitionResult{}))
	assert.Empty(t, client.requests)
}
