package rules

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS chunks USING fts5(
    text,
    source UNINDEXED,
    page UNINDEXED,
    tokenize = 'trigram'
);`

// Result is one retrieved chunk.
type Result struct {
	Text   string
	Source string
	Page   int
	// Score is the relevance; higher is better. Substring fallback matches score 0.
	Score float64
}

// Filter restricts a search to one source and/or page. Zero values match all.
type Filter struct {
	Source string
	Page   int
}

const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// Index is a SQLite FTS5 full-text index over corpus chunks.
type Index struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenIndex opens or creates the index database at path.
//
// Precondition: path must be non-empty; logger must be non-nil.
func OpenIndex(path string, logger *zap.Logger) (*Index, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("index path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path)+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open rules index: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping rules index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create rules schema: %w", err)
	}
	return &Index{db: db, logger: logger}, nil
}

// Close closes the database handle.
func (x *Index) Close() error {
	if x == nil || x.db == nil {
		return nil
	}
	return x.db.Close()
}

// Build replaces the index contents with the chunks of docs.
//
// Precondition: size > 0 and 0 <= overlap < size.
// Postcondition: returns the number of chunks stored.
func (x *Index) Build(ctx context.Context, docs []Document, size, overlap int) (int, error) {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin build: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return 0, fmt.Errorf("clear index: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (text, source, page) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, d := range docs {
		for _, chunk := range Split(d.Text, size, overlap) {
			if _, err := stmt.ExecContext(ctx, chunk, d.Source, d.Page); err != nil {
				return n, fmt.Errorf("insert chunk %s p.%d: %w", d.Source, d.Page, err)
			}
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit build: %w", err)
	}
	x.logger.Info("rules index built", zap.Int("documents", len(docs)), zap.Int("chunks", n))
	return n, nil
}

// Count returns the number of stored chunks.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Search returns the text of the k best chunks for query.
func (x *Index) Search(ctx context.Context, query string, k int) ([]string, error) {
	results, err := x.SearchByFilter(ctx, query, Filter{}, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Text
	}
	return out, nil
}

// SearchWithScore returns the k best chunks for query with their scores.
func (x *Index) SearchWithScore(ctx context.Context, query string, k int) ([]Result, error) {
	return x.SearchByFilter(ctx, query, Filter{}, k)
}

// SearchByFilter returns the k best chunks for query within f.
//
// Terms of three or more runes are matched through the trigram index and
// ranked by bm25. A query with no such term falls back to a substring scan.
//
// Postcondition: len(result) <= k; results are ordered best first.
func (x *Index) SearchByFilter(ctx context.Context, query string, f Filter, k int) ([]Result, error) {
	if k <= 0 || strings.TrimSpace(query) == "" {
		return nil, nil
	}

	where, args := filterClause(f)
	var (
		rows *sql.Rows
		err  error
	)
	if expr := matchExpr(query); expr != "" {
		args = append([]any{expr}, args...)
		args = append(args, k)
		rows, err = x.db.QueryContext(ctx,
			`SELECT text, source, page, -bm25(chunks) AS score
			   FROM chunks
			  WHERE chunks MATCH ?`+where+`
			  ORDER BY score DESC
			  LIMIT ?`, args...)
	} else {
		args = append([]any{strings.TrimSpace(query)}, args...)
		args = append(args, k)
		rows, err = x.db.QueryContext(ctx,
			`SELECT text, source, page, 0.0
			   FROM chunks
			  WHERE instr(text, ?) > 0`+where+`
			  ORDER BY rowid
			  LIMIT ?`, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Text, &r.Source, &r.Page, &r.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func filterClause(f Filter) (string, []any) {
	var (
		clause strings.Builder
		args   []any
	)
	if f.Source != "" {
		clause.WriteString(" AND source = ?")
		args = append(args, f.Source)
	}
	if f.Page > 0 {
		clause.WriteString(" AND page = ?")
		args = append(args, f.Page)
	}
	return clause.String(), args
}

// matchExpr builds an FTS5 OR-query from query. Words are quoted as phrases;
// unspaced CJK runs longer than three runes are broken into trigrams so a
// partial overlap still matches. Terms shorter than three runes are dropped.
func matchExpr(query string) string {
	var terms []string
	seen := map[string]bool{}
	add := func(t string) {
		if utf8.RuneCountInString(t) < 3 || seen[t] {
			return
		}
		seen[t] = true
		terms = append(terms, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	for _, word := range strings.FieldsFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) {
		r := []rune(word)
		if len(r) > 3 && hasHan(r) {
			for i := 0; i+3 <= len(r); i++ {
				add(string(r[i : i+3]))
			}
			continue
		}
		add(word)
	}
	return strings.Join(terms, " OR ")
}

func hasHan(r []rune) bool {
	for _, c := range r {
		if unicode.Is(unicode.Han, c) {
			return true
		}
	}
	return false
}
