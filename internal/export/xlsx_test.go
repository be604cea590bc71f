package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/stagesignal/event-cli/internal/model"
)

func sampleResult() *model.AcquisitionResult {
	return &model.AcquisitionResult{
		RunID:    "run-1",
		Provider: "google_cse",
		Events: []model.EventRecord{
			{
				SourceURL:  "https://summit.example.com/2026",
				Title:      "Logistics Summit 2026",
				StartsAt:   "2026-06-10",
				EndsAt:     "2026-06-12",
				City:       "Hamburg",
				Country:    "Germany",
				Venue:      "CCH",
				Topics:     []string{"freight", "automation"},
				Confidence: 0.85,
				Speakers: []model.SpeakerRecord{
					{Name: "Jane Doe", Org: "Acme", Title: "CTO", Confidence: 0.7, ExpertiseAreas: []string{"supply chain"}},
					{Name: "John Low", Confidence: 0.4},
				},
			},
			{
				SourceURL:  "https://expo.example.org",
				Title:      "Freight Expo",
				Confidence: 0.4,
			},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.xlsx")
	require.NoError(t, WriteXLSX(path, sampleResult()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)

	events := f.Sheet["Events"]
	require.NotNil(t, events)
	require.Len(t, events.Rows, 3, "header plus two events")
	assert.Equal(t, "Title", events.Rows[0].Cells[0].String())
	assert.Equal(t, "Logistics Summit 2026", events.Rows[1].Cells[0].String())
	assert.Equal(t, "2026-06-10", events.Rows[1].Cells[1].String())
	assert.Equal(t, "freight, automation", events.Rows[1].Cells[7].String())
	assert.Equal(t, "Jane Doe, John Low", events.Rows[1].Cells[8].String())
	assert.Equal(t, "0.85", events.Rows[1].Cells[9].String())

	speakers := f.Sheet["Speakers"]
	require.NotNil(t, speakers)
	require.Len(t, speakers.Rows, 3, "header plus two speakers")
	assert.Equal(t, "Jane Doe", speakers.Rows[1].Cells[0].String())
	assert.Equal(t, "Logistics Summit 2026", speakers.Rows[1].Cells[3].String())
	assert.Equal(t, "supply chain", speakers.Rows[1].Cells[4].String())
}

func TestWriteXLSX_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, &model.AcquisitionResult{RunID: "run-2"}))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheet["Events"].Rows, 1, "header only")
}
