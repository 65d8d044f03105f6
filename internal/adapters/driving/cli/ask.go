package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

var (
	askTopK        int
	askLocation    string
	askShowContext bool
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed document",
	Long: `Retrieves the passages most similar to the question and asks the
configured language model to answer using only that context.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from settings)")
	askCmd.Flags().StringVar(&askLocation, "location", "", "index location (default from settings)")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved passages")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answer as JSON")
	rootCmd.AddCommand(askCmd)
}

type askOutput struct {
	Answer  string          `json:"answer"`
	Model   string          `json:"model"`
	Context []passageOutput `json:"context"`
}

type passageOutput struct {
	Score   float64 `json:"score"`
	Source  string  `json:"source,omitempty"`
	Content string  `json:"content"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireIndexService(); err != nil {
		return err
	}
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	index, err := indexService.Load(cmd.Context(), askLocation)
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	answer, err := answerService.Answer(cmd.Context(), index, args[0], domain.AnswerOptions{TopK: askTopK})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(askOutput{
			Answer:  answer.Text,
			Model:   answer.Model,
			Context: toPassages(answer.Context),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if askShowContext {
		cmd.Println()
		cmd.Println("Context:")
		printPassages(cmd, answer.Context)
	}
	return nil
}

func toPassages(results []domain.ScoredChunk) []passageOutput {
	out := make([]passageOutput, len(results))
	for i := range results {
		out[i] = passageOutput{
			Score:   results[i].Score,
			Source:  sourceOf(results[i].Chunk),
			Content: results[i].Chunk.Content,
		}
	}
	return out
}

func printPassages(cmd *cobra.Command, results []domain.ScoredChunk) {
	for i := range results {
		cmd.Printf("  [%d] (%.3f)", i+1, results[i].Score)
		if src := sourceOf(results[i].Chunk); src != "" {
			cmd.Printf(" %s", src)
		}
		cmd.Println()
		cmd.Printf("      %s\n", snippet(results[i].Chunk.Content, 200))
		cmd.Println()
	}
}

// snippet shortens s to at most n runes on one line.
func snippet(s string, n int) string {
	out := make([]rune, 0, n)
	for _, r := range s {
		if len(out) == n {
			return string(out) + "..."
		}
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}

func sourceOf(c domain.Chunk) string {
	src, _ := c.Metadata["source"].(string)
	return src
}
