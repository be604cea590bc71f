// Package export writes acquisition results to downstream sinks: XLSX
// workbooks for analysts and Notion databases for the sales team.
package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/stagesignal/event-cli/internal/model"
)

var eventHeader = []string{
	"Title", "Start Date", "End Date", "City", "Country", "Venue",
	"Organizer", "Topics", "Speakers", "Confidence", "Source URL",
}

var speakerHeader = []string{
	"Name", "Organization", "Title", "Event", "Expertise", "Bio",
	"Confidence", "Profile URL",
}

// WriteXLSX writes the result's events and speakers to an XLSX workbook at
// path, one sheet per entity.
func WriteXLSX(path string, result *model.AcquisitionResult) error {
	f := xlsx.NewFile()

	events, err := f.AddSheet("Events")
	if err != nil {
		return eris.Wrap(err, "export: add events sheet")
	}
	addRow(events, eventHeader)
	for i := range result.Events {
		ev := &result.Events[i]
		addRow(events, []string{
			ev.Title,
			ev.StartsAt,
			ev.EndsAt,
			ev.City,
			ev.Country,
			ev.Venue,
			ev.Organizer,
			strings.Join(ev.Topics, ", "),
			speakerNames(ev.Speakers),
			formatConfidence(ev.Confidence),
			ev.SourceURL,
		})
	}

	speakers, err := f.AddSheet("Speakers")
	if err != nil {
		return eris.Wrap(err, "export: add speakers sheet")
	}
	addRow(speakers, speakerHeader)
	for i := range result.Events {
		ev := &result.Events[i]
		for j := range ev.Speakers {
			sp := &ev.Speakers[j]
			addRow(speakers, []string{
				sp.Name,
				sp.Org,
				sp.Title,
				ev.Title,
				strings.Join(sp.ExpertiseAreas, ", "),
				sp.Bio,
				formatConfidence(sp.Confidence),
				sp.ProfileURL,
			})
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func speakerNames(speakers []model.SpeakerRecord) string {
	names := make([]string, 0, len(speakers))
	for _, sp := range speakers {
		names = append(names, sp.Name)
	}
	return strings.Join(names, ", ")
}

func formatConfidence(c float64) string {
	return fmt.Sprintf("%.2f", c)
}
