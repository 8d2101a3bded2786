package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pharmadoc/internal/domain"
)

// displayedSources is how many sources the text output lists.
const displayedSources = 3

var (
	askText string
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieve the passages most similar to the question, assemble them into a
bounded context and generate an answer grounded on that context only.

Examples:
  pharmadoc ask -q "What is the recommended dosage for Ibuprofen?"
  pharmadoc ask "Can I take paracetamol while pregnant?" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "query", "q", "", "question to answer")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := askText
	if question == "" {
		question = strings.Join(args, " ")
	}

	a, err := openApp(cmd.Context(), GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.pipeline.Answer(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}
	result := answer.Result()

	if askJSON {
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(result.Result)
	if sources := result.DisplaySources(displayedSources); len(sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for i, s := range sources {
			fmt.Printf("  [%d] %s\n", i+1, formatSource(s))
		}
	}
	return nil
}

func formatSource(s domain.SourceDocument) string {
	if s.Page == nil {
		return s.Source
	}
	return fmt.Sprintf("%s, page %d", s.Source, *s.Page)
}
