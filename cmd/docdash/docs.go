package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/efecanulku/docdash/internal/view"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage uploaded documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.GoTo(cmd.Context(), view.SectionDocuments)
	},
}

var docsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document for analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.Documents().Upload(cmd.Context(), args[0])
	},
}

var docsInfoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show a document's metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.gw.GetDocument(cmd.Context(), id)
		if err != nil {
			return err
		}
		printStatus("Name", "%s", doc.OriginalFilename)
		printStatus("Type", "%s", doc.FileType)
		printStatus("Size", "%s", formatFileSize(doc.FileSize))
		printStatus("Uploaded", "%s", formatDate(doc.UploadDate))
		if doc.Processed {
			printStatus("Status", "ready")
		} else {
			printStatus("Status", "processing")
		}
		if doc.Summary != "" {
			printStatus("Summary", "%s", doc.Summary)
		}
		return nil
	},
}

var docsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a document's extracted text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.Documents().ViewContent(cmd.Context(), id)
	},
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.Documents().Delete(cmd.Context(), id)
	},
}

var docsReprocessCmd = &cobra.Command{
	Use:   "reprocess <id>",
	Short: "Re-run analysis on a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.Documents().Reprocess(cmd.Context(), id)
	},
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsInfoCmd)
	docsCmd.AddCommand(docsUploadCmd)
	docsCmd.AddCommand(docsViewCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	docsCmd.AddCommand(docsReprocessCmd)
}
