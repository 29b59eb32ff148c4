// Package validate implements the client-side checks run before a document
// is submitted: a size limit and an allow-list of MIME types.
package validate

import (
	"context"
	"fmt"
	"mime"
	"os"
	"slices"
	"strings"

	units "github.com/docker/go-units"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxSize is the largest document accepted (10 MiB).
const DefaultMaxSize int64 = 10 << 20

// DefaultAllowedTypes are the MIME types the service can scan and recognize.
var DefaultAllowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "application/pdf"}

// Rules is the pre-submission policy.
type Rules struct {
	MaxSize      int64
	AllowedTypes []string
}

// DefaultRules returns the stock policy.
func DefaultRules() Rules {
	return Rules{MaxSize: DefaultMaxSize, AllowedTypes: slices.Clone(DefaultAllowedTypes)}
}

// Error reports why a file was rejected before upload.
type Error struct {
	File     string
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.File, strings.Join(e.Problems, ", "))
}

// Check validates a document's size and MIME type and returns the
// human-readable problems found, or nil.
func Check(size int64, mimeType string, rules Rules) []string {
	var problems []string
	if rules.MaxSize > 0 && size > rules.MaxSize {
		problems = append(problems, fmt.Sprintf("File size exceeds %s limit", formatLimit(rules.MaxSize)))
	}
	if !allowed(mimeType, rules.AllowedTypes) {
		problems = append(problems, "File type not supported. Please use JPG, PNG, or PDF files.")
	}
	return problems
}

// File sniffs the document at path and checks it against rules. The
// returned error is only set when the file cannot be inspected.
func File(path string, rules Rules) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}
	return Check(info.Size(), mt.String(), rules), nil
}

// Result is the outcome of validating one file.
type Result struct {
	Path     string
	Problems []string
	Err      error
}

// OK reports whether the file passed.
func (r Result) OK() bool { return r.Err == nil && len(r.Problems) == 0 }

// Files validates paths with at most concurrency files inspected at once.
// Results keep the order of paths.
func Files(ctx context.Context, paths []string, rules Rules, concurrency int) []Result {
	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, p := range paths {
		g.Go(func() error {
			results[i].Path = p
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Problems, results[i].Err = File(p, rules)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func allowed(mimeType string, types []string) bool {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(mimeType))
	}
	return slices.Contains(types, mt)
}

// formatLimit renders whole mebibytes the way users read them ("10MB").
func formatLimit(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return units.BytesSize(float64(n))
}
