package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"miro-gateway/internal/integrations/miro"
	"miro-gateway/internal/upstream"
)

var boardFlags struct {
	boardID string
	frameID string
	asJSON  bool
}

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "List the frames of a board",
	Example: `  miro-gateway frames --board uXjVO123
  miro-gateway frames --board uXjVO123 --json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBoard(cmd, func(ctx context.Context, c *miro.Client) (json.RawMessage, error) {
			return c.FetchFrames(ctx, boardFlags.boardID)
		})
	},
}

var cardsCmd = &cobra.Command{
	Use:     "cards",
	Short:   "List the cards inside a frame",
	Example: `  miro-gateway cards --board uXjVO123 --frame 3458764523`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBoard(cmd, func(ctx context.Context, c *miro.Client) (json.RawMessage, error) {
			return c.FetchCards(ctx, boardFlags.boardID, boardFlags.frameID)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{framesCmd, cardsCmd} {
		c.Flags().StringVarP(&boardFlags.boardID, "board", "b", "", "board ID")
		c.Flags().BoolVar(&boardFlags.asJSON, "json", false, "print the raw response")
		_ = c.MarkFlagRequired("board")
		rootCmd.AddCommand(c)
	}
	cardsCmd.Flags().StringVarP(&boardFlags.frameID, "frame", "f", "", "frame ID")
	_ = cardsCmd.MarkFlagRequired("frame")
}

func runBoard(cmd *cobra.Command, fetch func(context.Context, *miro.Client) (json.RawMessage, error)) error {
	a, err := buildApp(cmd.Context(), cfg, os.Stderr)
	if err != nil {
		return err
	}
	raw, err := fetch(cmd.Context(), a.board)
	if err != nil {
		if ue, ok := upstream.AsError(err); ok {
			return fmt.Errorf("miro returned %d: %s", ue.StatusCode, ue.Message)
		}
		return err
	}
	if boardFlags.asJSON {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return err
	}
	renderSummaries(cmd.OutOrStdout(), miro.Summarize(raw))
	return nil
}

func renderSummaries(w io.Writer, items []miro.ItemSummary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Type", "Title"})
	for _, it := range items {
		tw.AppendRow(table.Row{it.ID, it.Type, it.Title})
	}
	tw.AppendFooter(table.Row{"", "Total", len(items)})
	tw.Render()
}
