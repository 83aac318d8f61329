package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"moviebox/internal/screen"
)

func newMovieCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "movie <id>",
		Short: "Show a movie with cast, videos, related movies and its card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movieID, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}

			model := screen.NewMovieContentModel(movieID, a.content, a.content.Materializer(), screen.ModelOptions{
				Formatter: a.formatter,
				Logger:    a.logger,
			})
			defer model.Close()
			if err := model.Start(cmd.Context()); err != nil {
				return err
			}
			snap, err := model.Wait(cmd.Context())
			if err != nil {
				return err
			}
			if snap.State == screen.StateFailed {
				return fmt.Errorf("load movie %d: %w", movieID, snap.Err())
			}

			if jsonOutput {
				return writeJSON(cmd, snap)
			}
			renderMovie(cmd, snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the screen snapshot as JSON")
	return cmd
}

func renderMovie(cmd *cobra.Command, snap screen.Snapshot) {
	out := cmd.OutOrStdout()
	info := snap.Info

	title := info.Title
	if info.Year != "" {
		title = fmt.Sprintf("%s (%s)", title, info.Year)
	}
	fmt.Fprintln(out, title)
	if info.OriginalTitle != "" {
		fmt.Fprintf(out, "Original title: %s\n", info.OriginalTitle)
	}

	var facts []string
	if info.RuntimeText != "" {
		facts = append(facts, info.RuntimeText)
	}
	if info.Genres != "" {
		facts = append(facts, info.Genres)
	}
	facts = append(facts, fmt.Sprintf("rating %s (%s votes)", info.Rating, info.VoteCount))
	fmt.Fprintln(out, strings.Join(facts, " | "))
	if info.Tagline != "" {
		fmt.Fprintf(out, "\n%s\n", info.Tagline)
	}
	if info.Overview != "" {
		fmt.Fprintf(out, "\n%s\n", info.Overview)
	}

	if len(snap.Credit) > 0 {
		rows := make([][]string, 0, len(snap.Credit))
		for _, c := range snap.Credit {
			rows = append(rows, []string{c.Name, c.Character})
		}
		fmt.Fprintf(out, "\nCast\n%s\n", renderTable(out, []string{"Name", "Character"}, rows, nil))
	}
	if len(snap.VideoGallery) > 0 {
		rows := make([][]string, 0, len(snap.VideoGallery))
		for _, v := range snap.VideoGallery {
			rows = append(rows, []string{v.Name, v.Type, v.WatchURL})
		}
		fmt.Fprintf(out, "\nVideos\n%s\n", renderTable(out, []string{"Name", "Type", "Watch"}, rows, nil))
	}
	if len(snap.SimilarMovies) > 0 {
		fmt.Fprintf(out, "\nSimilar\n%s\n", renderTable(out, []string{"ID", "Title"}, posterRows(snap.SimilarMovies), []columnAlignment{alignRight}))
	}
	if len(snap.RecommendMovies) > 0 {
		fmt.Fprintf(out, "\nRecommended\n%s\n", renderTable(out, []string{"ID", "Title"}, posterRows(snap.RecommendMovies), []columnAlignment{alignRight}))
	}

	card := snap.Card
	fmt.Fprintf(out, "\nCard\n  Rate:    %d/5\n", card.Rate)
	if card.Comment != "" {
		fmt.Fprintf(out, "  Comment: %s\n", card.Comment)
	}
	poster := "none"
	if card.HasPoster {
		poster = humanize.IBytes(uint64(len(card.Poster)))
	}
	fmt.Fprintf(out, "  Poster:  %s\n", poster)
}

func posterRows(posters []screen.PosterView) [][]string {
	rows := make([][]string, 0, len(posters))
	for _, p := range posters {
		rows = append(rows, []string{fmt.Sprintf("%d", p.MovieID), p.Title})
	}
	return rows
}
