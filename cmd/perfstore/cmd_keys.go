package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/perfstore/internal/bucket"
)

func newKeysCmd() *cobra.Command {
	var (
		at       int64
		category string
	)

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Show the bucket keys for a timestamp",
		Long: `Prints the day key and minute field key a sample taken at --at (unix
seconds, default now) is filed under, plus the SCAN patterns that select it
when --category is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			when := bucket.Now()
			if cmd.Flags().Changed("at") {
				parsed, err := bucket.ParseTimestamp(at)
				if err != nil {
					return err
				}
				when = parsed
			}
			when = when.UTC()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "day:    %s\n", bucket.DayKey(when))
			fmt.Fprintf(out, "minute: %s\n", bucket.FieldKey(when))

			if category != "" {
				if err := bucket.ValidateCategory(category); err != nil {
					return err
				}
				fmt.Fprintf(out, "day pattern:    %s\n", bucket.DayPattern(category, when))
				fmt.Fprintf(out, "minute pattern: %s\n", bucket.MinutePattern(category, when))
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&at, "at", 0, "Unix seconds (default now)")
	cmd.Flags().StringVar(&category, "category", "", "Category to build SCAN patterns for")
	return cmd
}
