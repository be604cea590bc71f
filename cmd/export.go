package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/export"
	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/pkg/notion"
)

var (
	exportIn   string
	exportXLSX string
	exportSink string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an acquisition result to XLSX or Notion",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(exportIn)
		if err != nil {
			return eris.Wrap(err, "read result file")
		}
		var result model.AcquisitionResult
		if err := json.Unmarshal(data, &result); err != nil {
			return eris.Wrap(err, "parse result file")
		}

		switch exportSink {
		case "xlsx":
			if exportXLSX == "" {
				return eris.New("--xlsx-out is required for the xlsx sink")
			}
			if err := export.WriteXLSX(exportXLSX, &result); err != nil {
				return err
			}
			zap.L().Info("xlsx export complete",
				zap.String("path", exportXLSX), zap.Int("events", len(result.Events)))
		case "notion":
			if cfg.Notion.Token == "" || cfg.Notion.EventDB == "" {
				return eris.New("notion export requires EVENTCLI_NOTION_TOKEN and EVENTCLI_NOTION_EVENT_DB")
			}
			exporter := export.NewNotionExporter(notion.NewClient(cfg.Notion.Token), cfg.Notion.EventDB)
			if err := exporter.Export(ctx, &result); err != nil {
				return err
			}
			zap.L().Info("notion export complete",
				zap.String("database", cfg.Notion.EventDB), zap.Int("events", len(result.Events)))
		default:
			return eris.Errorf("unknown sink %q (want xlsx or notion)", exportSink)
		}

		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportIn, "in", "", "acquisition result JSON file (required)")
	exportCmd.Flags().StringVar(&exportXLSX, "xlsx-out", "", "output path for the xlsx sink")
	exportCmd.Flags().StringVar(&exportSink, "sink", "xlsx", "export sink: xlsx or notion")
	_ = exportCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(exportCmd)
}
