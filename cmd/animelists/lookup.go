package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"animelists/internal/mapping"
	"animelists/internal/services"
)

type lookupRow struct {
	MALID  int64  `json:"mal_id"`
	Mapped bool   `json:"mapped"`
	TVDB   *int64 `json:"tvdb_id"`
	TMDB   *int64 `json:"tmdb_id"`
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "lookup <mal-id>...",
		Short: "Look up MAL ids in the mapping feed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseMALIDs(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			feed, err := newMappingClient(cfg)
			if err != nil {
				return err
			}
			table, err := feed.Load(cmd.Context())
			if err != nil {
				return err
			}

			rows := lookupRows(table, ids)
			if jsonOutput {
				return writeJSON(cmd, rows)
			}
			out := make([][]string, 0, len(rows))
			for _, r := range rows {
				if !r.Mapped {
					out = append(out, []string{strconv.FormatInt(r.MALID, 10), "?", "?"})
					continue
				}
				out = append(out, []string{strconv.FormatInt(r.MALID, 10), formatID(r.TVDB), formatID(r.TMDB)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"MAL", "TVDB", "TMDB"},
				out,
				[]columnAlignment{alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the lookups as JSON")
	return cmd
}

func parseMALIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, services.Wrap(services.ErrValidation, "lookup", "parse id", fmt.Sprintf("%q is not a MAL id", arg), nil)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func lookupRows(table *mapping.Table, ids []int64) []lookupRow {
	rows := make([]lookupRow, 0, len(ids))
	for _, id := range ids {
		rec, ok := table.Lookup(id)
		rows = append(rows, lookupRow{MALID: id, Mapped: ok, TVDB: rec.TVDB, TMDB: rec.TMDB})
	}
	return rows
}

func formatID(id *int64) string {
	if id == nil {
		return "null"
	}
	return strconv.FormatInt(*id, 10)
}
