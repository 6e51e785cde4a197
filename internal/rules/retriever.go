package rules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// FormatContext renders results as numbered references for a prompt,
// stopping before the total would exceed maxChars.
func FormatContext(results []string, maxChars int) string {
	var parts []string
	total := 0
	for i, text := range results {
		part := fmt.Sprintf("[ref %d] %s", i+1, text)
		n := len([]rune(part))
		if total+n > maxChars {
			break
		}
		parts = append(parts, part)
		total += n
	}
	return strings.Join(parts, "\n\n")
}

// Retriever answers rules queries for prompts. A Retriever without an index
// returns empty context.
type Retriever struct {
	idx      *Index
	topK     int
	maxChars int
	logger   *zap.Logger
}

// NewRetriever creates a Retriever over idx, which may be nil.
//
// Precondition: topK > 0, maxChars > 0, logger non-nil.
func NewRetriever(idx *Index, topK, maxChars int, logger *zap.Logger) *Retriever {
	return &Retriever{idx: idx, topK: topK, maxChars: maxChars, logger: logger}
}

// OpenRetriever opens the index at path. A missing index file yields a
// Retriever that is unavailable, with a warning logged.
func OpenRetriever(path string, topK, maxChars int, logger *zap.Logger) (*Retriever, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("rules index not found; retrieval disabled", zap.String("path", path))
		return NewRetriever(nil, topK, maxChars, logger), nil
	}
	idx, err := OpenIndex(path, logger)
	if err != nil {
		return nil, err
	}
	return NewRetriever(idx, topK, maxChars, logger), nil
}

// Available reports whether an index is attached.
func (r *Retriever) Available() bool { return r != nil && r.idx != nil }

// Context returns formatted rules context for query. Failures are logged
// and yield an empty string.
func (r *Retriever) Context(ctx context.Context, query string) string {
	if !r.Available() {
		if r != nil {
			r.logger.Warn("rules retriever unavailable, returning no context")
		}
		return ""
	}
	results, err := r.idx.Search(ctx, query, r.topK)
	if err != nil {
		r.logger.Warn("rules search failed", zap.String("query", query), zap.Error(err))
		return ""
	}
	return FormatContext(results, r.maxChars)
}

// Close closes the underlying index.
func (r *Retriever) Close() error {
	if !r.Available() {
		return nil
	}
	return r.idx.Close()
}
