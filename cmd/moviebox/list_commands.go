package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"moviebox/internal/content"
	"moviebox/internal/tmdb"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var page int
	var jsonOutput bool

	kinds := make([]string, 0, len(tmdb.ListKinds()))
	for _, kind := range tmdb.ListKinds() {
		kinds = append(kinds, string(kind))
	}

	cmd := &cobra.Command{
		Use:       "list [" + strings.Join(kinds, "|") + "]",
		Short:     "Show a curated movie list (default popular)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := tmdb.ListPopular
			if len(args) == 1 {
				kind = tmdb.ListKind(strings.TrimSpace(args[0]))
			}
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			list, err := a.content.MovieList(cmd.Context(), kind, page)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, list)
			}
			renderMovieList(cmd, list)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var page int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			list, err := a.content.SearchMovies(cmd.Context(), strings.Join(args, " "), page)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, list)
			}
			renderMovieList(cmd, list)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func renderMovieList(cmd *cobra.Command, list *content.MovieList) {
	out := cmd.OutOrStdout()
	if len(list.Entries) == 0 {
		fmt.Fprintln(out, "No movies found")
		return
	}
	rows := make([][]string, 0, len(list.Entries))
	for _, entry := range list.Entries {
		year := entry.ReleaseDate
		if len(year) >= 4 {
			year = year[:4]
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", entry.ID),
			entry.Title,
			year,
			fmt.Sprintf("%.1f", entry.VoteAverage),
		})
	}
	fmt.Fprintln(out, renderTable(out, []string{"ID", "Title", "Year", "Rating"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))
	fmt.Fprintf(out, "Page %d of %d (%d results)\n", list.Page, list.TotalPages, list.TotalResults)
}
