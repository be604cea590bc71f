package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/model"
)

var (
	acquireQuery    string
	acquireCountry  string
	acquireDateFrom string
	acquireDateTo   string
	acquireCount    int
	acquireOut      string
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Run the acquisition pipeline for one query",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result := env.Pipeline.Acquire(ctx, model.AcquireRequest{
			Query:       acquireQuery,
			Country:     acquireCountry,
			DateFrom:    acquireDateFrom,
			DateTo:      acquireDateTo,
			ResultCount: acquireCount,
		})

		zap.L().Info("acquisition finished",
			zap.String("run_id", result.RunID),
			zap.String("provider", result.Provider),
			zap.Int("events", len(result.Events)),
		)

		out := os.Stdout
		if acquireOut != "" {
			f, createErr := os.Create(acquireOut)
			if createErr != nil {
				return eris.Wrap(createErr, "create output file")
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	acquireCmd.Flags().StringVar(&acquireQuery, "query", "", "free-text query seed")
	acquireCmd.Flags().StringVar(&acquireCountry, "country", "", "two-letter country hint (e.g. DE)")
	acquireCmd.Flags().StringVar(&acquireDateFrom, "from", "", "window start, YYYY-MM-DD")
	acquireCmd.Flags().StringVar(&acquireDateTo, "to", "", "window end, YYYY-MM-DD")
	acquireCmd.Flags().IntVar(&acquireCount, "count", 0, "number of search results (default from config)")
	acquireCmd.Flags().StringVar(&acquireOut, "out", "", "write result JSON to file instead of stdout")
	rootCmd.AddCommand(acquireCmd)
}
