// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/comic-forge/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past conversion runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := history.Open(viper.GetString("history_dir"))
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		for _, r := range records {
			mode := "separate"
			if r.Merged {
				mode = "merge"
			}
			fmt.Printf("#%d  %s  %-9s  %s/%s  %d sources, %d converted, %d failed\n",
				r.ID, r.StartedAt.Local().Format(time.DateTime), r.State,
				r.Format, mode, r.Sources, r.Converted, r.Failed)
			for _, a := range r.Artifacts {
				fmt.Printf("    %s\n", a)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}
