package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pharmadoc/internal/adapter/analyzer"
	"pharmadoc/internal/domain"
	"pharmadoc/internal/usecase"
)

var (
	packQuery  string
	packBudget int
	packOutput string
	packTopK   int
	packJSON   bool
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Assemble context and render the answer prompt",
	Long: `Retrieve and assemble the context for a question within a byte budget and
print the prompt the generator would receive, without calling it. Useful for
inspecting what an answer will be grounded on or for feeding another model.

Examples:
  pharmadoc pack -q "contraindications of ibuprofen"
  pharmadoc pack -q "storage temperature" -b 2000 -o prompt.json --json`,
	RunE: runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().StringVarP(&packQuery, "query", "q", "", "question (required)")
	packCmd.Flags().IntVarP(&packBudget, "budget", "b", 0, "context budget in bytes (default from config)")
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "output file (default: stdout)")
	packCmd.Flags().IntVarP(&packTopK, "top-k", "k", 0, "candidate pool size (default from config)")
	packCmd.Flags().BoolVar(&packJSON, "json", false, "output segments and prompts as JSON")
	packCmd.MarkFlagRequired("query")
}

type packedPrompt struct {
	Query    string           `json:"query"`
	Budget   int              `json:"budget"`
	Segments []domain.Segment `json:"segments"`
	Tokens   int              `json:"approx_tokens"`
	System   string           `json:"system"`
	User     string           `json:"user"`
}

func runPack(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := openApp(cmd.Context(), cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	topK := cfg.Retrieve.TopK
	if packTopK > 0 {
		topK = packTopK
	}
	budget := cfg.Context.Budget
	if packBudget > 0 {
		budget = packBudget
	}

	segments, err := a.pipeline.Pack(cmd.Context(), packQuery, topK, budget)
	if err != nil {
		return fmt.Errorf("packing failed: %w", err)
	}
	if len(segments) == 0 {
		fmt.Fprintln(os.Stderr, "No relevant content found.")
		return nil
	}

	system, user, err := usecase.RenderPrompt(packQuery, segments)
	if err != nil {
		return err
	}

	tokens := analyzer.NewTokenizer(false).CountTokens(system + user)

	var output []byte
	if packJSON {
		output, err = json.MarshalIndent(packedPrompt{
			Query:    packQuery,
			Budget:   budget,
			Segments: segments,
			Tokens:   tokens,
			System:   system,
			User:     user,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
	} else {
		output = []byte(system + "\n\n" + user)
	}

	if packOutput == "" {
		fmt.Println(string(output))
		return nil
	}
	if err := os.WriteFile(packOutput, output, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Printf("Context packed to: %s\n", packOutput)
	fmt.Printf("  Segments: %d\n", len(segments))
	fmt.Printf("  Tokens:   ~%d\n", tokens)
	return nil
}
