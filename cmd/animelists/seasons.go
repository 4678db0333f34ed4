package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"animelists/internal/season"
)

type seasonRow struct {
	Offset int    `json:"offset"`
	Label  string `json:"label"`
	Season string `json:"season"`
	Year   int    `json:"year"`
	Path   string `json:"path"`
}

func newSeasonsCommand(ctx *commandContext) *cobra.Command {
	var count int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "seasons",
		Short: "Show the season window a run would fetch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			n := cfg.Window.Seasons
			if cmd.Flags().Changed("count") {
				if count <= 0 {
					return fmt.Errorf("--count must be positive")
				}
				n = count
			}

			rows := seasonRows(time.Now(), n)
			if jsonOutput {
				return writeJSON(cmd, rows)
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{strconv.Itoa(r.Offset), r.Label, r.Path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Offset", "Season", "Catalog Path"},
				table,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Number of seasons to list (defaults to window.seasons)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the window as JSON")
	return cmd
}

func seasonRows(now time.Time, n int) []seasonRow {
	keys := season.Window(now, n)
	rows := make([]seasonRow, 0, len(keys))
	for i, key := range keys {
		rows = append(rows, seasonRow{
			Offset: i,
			Label:  key.String(),
			Season: string(key.Season),
			Year:   key.Year,
			Path:   fmt.Sprintf("anime/season/%d/%s", key.Year, key.Season),
		})
	}
	return rows
}
