package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFiles writes <run_id>.md and <run_id>_trades.csv into dir and returns their paths.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{r.Run.RunID + ".md", RenderMarkdown(r)},
		{r.Run.RunID + "_trades.csv", RenderTradesCSV(r.Trades)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
