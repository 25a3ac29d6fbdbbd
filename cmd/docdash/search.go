package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efecanulku/docdash/internal/view"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search document content",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileType, _ := cmd.Flags().GetString("type")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if len(args) == 0 {
			// Bare `docdash search` just opens the section with its filters.
			return a.ctrl.GoTo(ctx, view.SectionSearch)
		}

		a.ctrl.Search().LoadFilters(ctx)
		a.ctrl.Search().SetFileType(fileType)
		return a.ctrl.Search().SearchQuery(ctx, strings.Join(args, " "))
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <partial>",
	Short: "Show search suggestions for a partial query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		suggestions, err := a.ctrl.Search().Suggest(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			fmt.Println("No suggestions.")
			return nil
		}
		for _, s := range suggestions {
			fmt.Printf("  %s\n", s)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("type", "", "restrict results to one file type")
	searchCmd.AddCommand(suggestCmd)
}
