package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sawpanic/perfstore/internal/store"
)

// batchFlags carries per-invocation overrides of the configured batch sizes
type batchFlags struct {
	scan int64
	mget int
}

func (b *batchFlags) register(fs *pflag.FlagSet) {
	fs.Int64Var(&b.scan, "scan-batch", 0, "SCAN COUNT hint (default from config)")
	fs.IntVar(&b.mget, "mget-batch", 0, "Keys per MGET (default from config)")
}

// fetchLine is one line of fetch output
type fetchLine struct {
	Key   string      `json:"key"`
	Value store.Value `json:"value"`
}

func newFetchCmd() *cobra.Command {
	var batches batchFlags

	cmd := &cobra.Command{
		Use:   "fetch <pattern>",
		Short: "Print every stored sample matching a glob pattern",
		Long: `Scans the keyspace for string keys matching pattern and prints one JSON
line per key. Keys that expire between the scan and the read print a null value.`,
		Example: `  perfstore fetch 'web|date-2024-01-31|*'
  perfstore fetch 'web|date-2024-01-31|10:01|*' --mget-batch 200`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := openStore(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.FetchMatchingWith(ctx, args[0], batches.scan, batches.mget)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for i, key := range res.Keys {
				if err := enc.Encode(fetchLine{Key: key, Value: res.Values[i]}); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}
			return nil
		},
	}

	batches.register(cmd.Flags())
	return cmd
}
