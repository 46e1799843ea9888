// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/heic2jpg/internal/history"
	"github.com/pdiddy/heic2jpg/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent conversion runs",
	Long: `History lists run summaries recorded in the local SQLite ledger, newest
first. The ledger location follows the history.dir config key and defaults
to the user cache directory.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")
	historyCmd.Flags().Bool("yaml", false, "output runs as YAML")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.NewStore(types.HistoryConfig{
		Dir:     viper.GetString("history.dir"),
		Enabled: true,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	if yamlOutput, _ := cmd.Flags().GetBool("yaml"); yamlOutput {
		data, err := yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("marshaling history: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-19s  %-36s  %5s  %5s  %5s  %5s\n",
		"ID", "Started", "Directory", "Found", "OK", "Fail", "Del")
	for _, r := range records {
		dir := r.Directory
		if len(dir) > 36 {
			dir = "..." + dir[len(dir)-33:]
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-19s  %-36s  %5d  %5d  %5d  %5d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), dir,
			r.Found, r.Converted, r.Failed, r.Deleted)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(records))
	return nil
}
