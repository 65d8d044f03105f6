package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

var (
	ingestLocation string
	ingestJSON     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Index a document",
	Long: `Loads a PDF, Markdown or plain text document, splits it into overlapping
chunks, embeds every chunk and persists the resulting vector index.

An existing index at the same location is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestLocation, "location", "", "index location (default from settings)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

type ingestOutput struct {
	Location  string  `json:"location"`
	Title     string  `json:"title"`
	Chunks    int     `json:"chunks"`
	Dimension int     `json:"dimension"`
	Model     string  `json:"model"`
	Seconds   float64 `json:"seconds"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireIndexService(); err != nil {
		return err
	}

	_, result, err := indexService.BuildIndex(cmd.Context(), domain.IngestRequest{
		Path:     args[0],
		Location: ingestLocation,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		data, err := json.MarshalIndent(ingestOutput{
			Location:  result.Location,
			Title:     result.DocumentTitle,
			Chunks:    result.Chunks,
			Dimension: result.Dimension,
			Model:     result.Model,
			Seconds:   result.Duration.Seconds(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Indexed %q\n", result.DocumentTitle)
	cmd.Printf("  Chunks:    %d\n", result.Chunks)
	cmd.Printf("  Dimension: %d (%s)\n", result.Dimension, result.Model)
	cmd.Printf("  Location:  %s\n", result.Location)
	cmd.Printf("  Took:      %s\n", result.Duration.Round(time.Millisecond))
	return nil
}
