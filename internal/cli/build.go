package cli

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pharmadoc/internal/adapter/fs"
)

var buildCmd = &cobra.Command{
	Use:     "build [path...]",
	Aliases: []string{"index"},
	Short:   "Build the index from documents",
	Long: `Load, segment and embed every supported document under the given paths
and replace the persisted index. Directories are walked recursively using the
loader include and exclude patterns. A document that cannot be read aborts the
build and leaves the previous index untouched.

The index is stored in .pharmadoc/ within the root directory.

Examples:
  pharmadoc build                         # Index the current directory
  pharmadoc build ./leaflets ibuprofen.pdf`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	roots := []string{GetRootDir()}
	if len(args) > 0 {
		roots = roots[:0]
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}
			roots = append(roots, abs)
		}
	}

	walker := fs.NewWalker(cfg.Loader.Includes, cfg.Loader.Excludes)
	files, err := walker.WalkAll(roots)
	if err != nil {
		return fmt.Errorf("failed to scan documents: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents found under %v", roots)
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	a, err := newApp(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Indexing %d documents...\n", len(paths))

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time
	shown := 0

	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		// batches finish out of order
		if done <= shown {
			return
		}
		shown = done
		bar.Set(done)

		elapsed := time.Since(startTime)
		rate := float64(done) / elapsed.Seconds()
		if rate > 0 {
			eta := time.Duration(float64(total-done)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
		}
	}

	result, err := a.pipeline.Build(cmd.Context(), paths, progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Build:     %s\n", result.BuildID)
	fmt.Printf("  Documents: %d\n", result.Documents)
	fmt.Printf("  Segments:  %d\n", result.Segments)
	fmt.Printf("  Dimension: %d\n", result.Dimension)
	fmt.Printf("  Took:      %s\n", formatDuration(result.Duration))
	fmt.Printf("\nIndex stored at: %s\n", a.dbPath)
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
