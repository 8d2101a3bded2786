package cli

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"pharmadoc/internal/domain"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search indexed documents",
	Long: `Show the segments most similar to a query, best first, without generating
an answer.

Examples:
  pharmadoc query -q "maximum daily dose"
  pharmadoc query -q "interactions with warfarin" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

type matchResult struct {
	Source string  `json:"source"`
	Page   *int    `json:"page,omitempty"`
	Offset int     `json:"offset"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := openApp(cmd.Context(), cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	matches, err := a.pipeline.Retrieve(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]matchResult, len(matches))
	for i, m := range matches {
		results[i] = matchResult{
			Source: m.Segment.Source,
			Page:   m.Segment.Page,
			Offset: m.Segment.Offset,
			Score:  m.Score,
			Text:   m.Segment.Text,
		}
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		src := formatSource(domain.SourceDocument{Source: r.Source, Page: r.Page})
		fmt.Printf("--- [%d] %s @%d (score: %.3f) ---\n", i+1, src, r.Offset, r.Score)
		fmt.Println(truncate(r.Text, 500))
		fmt.Println()
	}
	return nil
}

// truncate cuts text to at most n bytes without splitting a rune.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n] + "..."
}
