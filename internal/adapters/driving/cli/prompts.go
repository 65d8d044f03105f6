package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
	"github.com/custodia-labs/codetutor/internal/core/services"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage prompt templates",
	Long: `Prompt templates are plain text files in the prompts directory under the
codetutor home. Edit them to change how answers are generated; a running
server picks up changes without a restart.

Templates must contain the {context} and {question} placeholders and may
start with a "# version: N" line.`,
}

var promptsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print a prompt template",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPromptsShow,
}

var promptsPathCmd = &cobra.Command{
	Use:   "path [name]",
	Short: "Print the file backing a prompt template",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPromptsPath,
}

var promptsResetCmd = &cobra.Command{
	Use:   "reset [name]",
	Short: "Restore a prompt template to its default",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPromptsReset,
}

func init() {
	promptsCmd.AddCommand(promptsShowCmd)
	promptsCmd.AddCommand(promptsPathCmd)
	promptsCmd.AddCommand(promptsResetCmd)
	rootCmd.AddCommand(promptsCmd)
}

func promptName(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return driven.PromptAnswer
}

func runPromptsShow(cmd *cobra.Command, args []string) error {
	if promptAssets == nil {
		return errors.New("prompt store not configured")
	}
	name := promptName(args)
	raw, err := promptAssets.Load(name)
	if err != nil {
		return fmt.Errorf("failed to load prompt: %w", err)
	}

	_, version := services.ParseTemplate(raw)
	cmd.Printf("# %s (version %d)\n", name, version)
	cmd.Println(raw)
	if _, err := services.NewAssembler(raw); err != nil {
		cmd.Printf("\nWarning: %v\n", err)
	}
	return nil
}

func runPromptsPath(cmd *cobra.Command, args []string) error {
	if promptAssets == nil {
		return errors.New("prompt store not configured")
	}
	cmd.Println(promptAssets.Path(promptName(args)))
	return nil
}

func runPromptsReset(cmd *cobra.Command, args []string) error {
	if promptAssets == nil {
		return errors.New("prompt store not configured")
	}
	name := promptName(args)
	if err := promptAssets.Reset(name); err != nil {
		return fmt.Errorf("failed to reset prompt: %w", err)
	}
	cmd.Printf("Prompt %q restored to default\n", name)
	return nil
}
