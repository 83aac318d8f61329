package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"moviebox/internal/moviecard"
	"moviebox/internal/screen"
)

func newCardCommand(ctx *commandContext) *cobra.Command {
	cardCmd := &cobra.Command{
		Use:   "card",
		Short: "Manage the movie card box",
	}
	cardCmd.AddCommand(newCardListCommand(ctx))
	cardCmd.AddCommand(newCardShowCommand(ctx))
	cardCmd.AddCommand(newCardAddCommand(ctx))
	cardCmd.AddCommand(newCardRateCommand(ctx))
	cardCmd.AddCommand(newCardCommentCommand(ctx))
	cardCmd.AddCommand(newCardDeleteCommand(ctx))
	return cardCmd
}

func newCardListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored cards, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			cards, err := a.content.ListCards(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				views := make([]screen.MovieCardView, 0, len(cards))
				for _, card := range cards {
					views = append(views, screen.MovieCard(card))
				}
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "No cards yet")
				return nil
			}
			rows := make([][]string, 0, len(cards))
			for _, card := range cards {
				rows = append(rows, cardRow(card))
			}
			fmt.Fprintln(out, renderTable(out, []string{"ID", "Title", "Rate", "Comment", "Created", "Poster"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func newCardShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored card",
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
			card, err := a.content.GetCard(cmd.Context(), movieID)
			if err != nil {
				return err
			}
			return printCard(cmd, *card, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")
	return cmd
}

func newCardAddCommand(ctx *commandContext) *cobra.Command {
	var rate int
	var comment string
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a movie to the card box, fetching its poster",
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
			card, err := a.content.AddCard(cmd.Context(), movieID, rate, comment)
			if err != nil {
				return err
			}
			return printCard(cmd, *card, false)
		},
	}
	cmd.Flags().IntVar(&rate, "rate", 0, "Rating from 0 to 5")
	cmd.Flags().StringVar(&comment, "comment", "", "Personal comment")
	return cmd
}

func newCardRateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <id> <0-5>",
		Short: "Set a card's rating",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			movieID, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			var rate int
			if _, err := fmt.Sscan(args[1], &rate); err != nil {
				return fmt.Errorf("rate must be an integer: %w", err)
			}
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			card, err := a.content.RateCard(cmd.Context(), movieID, rate)
			if err != nil {
				return err
			}
			return printCard(cmd, *card, false)
		},
	}
}

func newCardCommentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Set a card's comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			movieID, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			card, err := a.content.CommentCard(cmd.Context(), movieID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return printCard(cmd, *card, false)
		},
	}
}

func newCardDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a card from the box",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movieID, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.openApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.content.DeleteCard(cmd.Context(), movieID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d\n", movieID)
			return nil
		},
	}
}

func printCard(cmd *cobra.Command, card moviecard.Card, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(cmd, screen.MovieCard(card))
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d)\n", card.Title, card.MovieID)
	fmt.Fprintf(out, "  Rate:    %d/%d\n", card.Rate, moviecard.MaxRate)
	if card.Comment != "" {
		fmt.Fprintf(out, "  Comment: %s\n", card.Comment)
	}
	fmt.Fprintf(out, "  Created: %s\n", card.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "  Poster:  %s\n", posterSize(card))
	return nil
}

func cardRow(card moviecard.Card) []string {
	return []string{
		fmt.Sprintf("%d", card.MovieID),
		card.Title,
		fmt.Sprintf("%d/%d", card.Rate, moviecard.MaxRate),
		card.Comment,
		humanize.Time(card.CreatedAt),
		posterSize(card),
	}
}

func posterSize(card moviecard.Card) string {
	if !card.HasPoster() {
		return "none"
	}
	return humanize.IBytes(uint64(len(card.Poster)))
}
