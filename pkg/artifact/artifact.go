// Package artifact writes the raw request and response text of every call
// block to a directory, one pair of files per block.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/papercomputeco/crewlog/pkg/calllog"
	"github.com/papercomputeco/crewlog/pkg/logger"
)

const (
	inputSuffix  = "_input.txt"
	outputSuffix = "_output.txt"

	dirPerm  = 0o755
	filePerm = 0o644
)

// SkippedSave is a block whose files could not be written.
type SkippedSave struct {
	Block int
	Path  string
	Err   error
}

// Result contains statistics from a write.
type Result struct {
	Dir     string
	Written []string
	Skipped []SkippedSave
}

// Summary returns a human-readable summary of the write.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"Saved %d files to %s\n"+
			"Skipped %d blocks",
		len(r.Written), r.Dir, len(r.Skipped),
	)
}

// Writer writes block transcripts.
type Writer struct {
	logger *slog.Logger
}

// New creates a Writer. A nil logger discards output.
func New(l *slog.Logger) *Writer {
	if l == nil {
		l = logger.Nop()
	}
	return &Writer{logger: l}
}

// Write saves NNN_<slug>_input.txt and NNN_<slug>_output.txt for every block.
// I/O failures never abort the write: they are logged and recorded in
// Result.Skipped.
func (w *Writer) Write(dir string, blocks []*calllog.CallBlock) *Result {
	result := &Result{Dir: dir}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		w.logger.Warn("could not create artifact directory", "dir", dir, "error", err)
		for _, b := range blocks {
			result.Skipped = append(result.Skipped, SkippedSave{Block: b.Index, Path: dir, Err: err})
		}
		return result
	}

	for _, b := range blocks {
		prefix := filepath.Join(dir, calllog.ArtifactPrefix(b.Index, b.TaskHint))

		written, skipped := writePair(prefix, b)
		result.Written = append(result.Written, written...)
		if skipped != nil {
			skipped.Block = b.Index
			w.logger.Warn("could not save block", "block", b.Index, "path", skipped.Path, "error", skipped.Err)
			result.Skipped = append(result.Skipped, *skipped)
		}
	}

	return result
}

func writePair(prefix string, b *calllog.CallBlock) ([]string, *SkippedSave) {
	var written []string
	for _, f := range []struct {
		path string
		text string
	}{
		{prefix + inputSuffix, b.RequestText},
		{prefix + outputSuffix, b.ResponseText},
	} {
		if err := os.WriteFile(f.path, []byte(f.text), filePerm); err != nil {
			return written, &SkippedSave{Path: f.path, Err: err}
		}
		written = append(written, f.path)
	}
	return written, nil
}
