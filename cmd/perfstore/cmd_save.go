package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/perfstore/internal/bucket"
	"github.com/sawpanic/perfstore/internal/recorder"
)

func newSaveCmd() *cobra.Command {
	var (
		at  int64
		ttl time.Duration
	)

	cmd := &cobra.Command{
		Use:   "save <category> <json>",
		Short: "Record one sample",
		Long: `Records a JSON sample under the minute bucket of --at (unix seconds,
default now). The sample expires after --ttl, or the configured retention.`,
		Example: `  perfstore save web '{"duration":12.5,"status":200}'
  perfstore save jobs 431 --at 1706695260 --ttl 24h`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, raw := args[0], args[1]

			if !json.Valid([]byte(raw)) {
				return fmt.Errorf("sample is not valid JSON: %s", raw)
			}

			when := bucket.Now()
			if cmd.Flags().Changed("at") {
				parsed, err := bucket.ParseTimestamp(at)
				if err != nil {
					return err
				}
				when = parsed
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := openStore(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			key, err := recorder.New(s).RecordAt(ctx, category, when, json.RawMessage(raw), ttl)
			if err != nil {
				return err
			}

			log.Info().Str("key", key.String()).Msg("Sample saved")
			fmt.Fprintln(cmd.OutOrStdout(), key.String())
			return nil
		},
	}

	cmd.Flags().Int64Var(&at, "at", 0, "Sample time as unix seconds (default now)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Expiry, at least 1s (default configured retention)")
	return cmd
}
