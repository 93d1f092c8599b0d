package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a document with its extraction output",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a document and its vectors",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentsCmd.PersistentFlags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentShowCmd)
	documentsCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	if pipeline == nil {
		return errors.New("document service not configured")
	}

	docs, err := pipeline.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if documentsJSON {
		return printJSON(cmd, docs)
	}
	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}
	for _, d := range docs {
		cmd.Printf("%s  %s  %s\n", d.ID, d.UploadedAt.Local().Format(time.DateTime), d.FileName)
	}
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if pipeline == nil {
		return errors.New("document service not configured")
	}

	doc, err := pipeline.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, doc)
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if pipeline == nil {
		return errors.New("document service not configured")
	}

	if err := pipeline.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted %s\n", args[0])
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
