package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/insightmap/insightmap/internal/model"
)

// FileResult is the outcome of importing one transcript file
type FileResult struct {
	Path     string
	Artifact *model.ResearchArtifact
	Err      error
}

// BatchImporter imports many transcript files concurrently
type BatchImporter struct {
	importer *Importer
	workers  int
}

// NewBatchImporter creates a batch importer with the given worker count
func NewBatchImporter(importer *Importer, workers int) *BatchImporter {
	if workers <= 0 {
		workers = 1
	}
	return &BatchImporter{importer: importer, workers: workers}
}

// ImportFiles reads and imports each path. Results come back in input order;
// a failed file carries its error rather than aborting the batch.
func (b *BatchImporter) ImportFiles(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.importFile(paths[i])
			}
		}()
	}

	for i := range paths {
		select {
		case <-ctx.Done():
			// Mark the rest as cancelled and stop feeding workers.
			for j := i; j < len(paths); j++ {
				results[j] = FileResult{Path: paths[j], Err: ctx.Err()}
			}
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (b *BatchImporter) importFile(path string) FileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	artifact, err := b.importer.ImportTranscript(name, string(data))
	return FileResult{Path: path, Artifact: artifact, Err: err}
}
