// Package rules retrieves passages from the rules corpus so the story engine
// can quote the rulebook. Documents are cleaned, split into overlapping
// chunks and stored in a SQLite FTS5 trigram index ranked by bm25.
package rules

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// MinPageRunes is the shortest cleaned page kept in the corpus.
const MinPageRunes = 50

// Document is one page of a rules source.
type Document struct {
	Source string
	Page   int
	Text   string
}

// yamlDocument is the on-disk form of a YAML corpus file.
type yamlDocument struct {
	Source string `yaml:"source"`
	Pages  []struct {
		Page  int    `yaml:"page"`
		Title string `yaml:"title"`
		Text  string `yaml:"text"`
	} `yaml:"pages"`
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	cnPageMark = regexp.MustCompile(`第\s*\d+\s*页`)
	enPageMark = regexp.MustCompile(`(?i)page\s*\d+`)
)

// Clean collapses whitespace and strips page header and footer markers.
func Clean(text string) string {
	text = whitespace.ReplaceAllString(text, " ")
	text = cnPageMark.ReplaceAllString(text, "")
	text = enPageMark.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// LoadCorpus reads every .txt, .md, .yaml and .yml file under dir.
// Plain-text files are paged on form feeds. Pages shorter than MinPageRunes
// after cleaning are skipped.
//
// Postcondition: documents are ordered by source then page.
func LoadCorpus(dir string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		var loaded []Document
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
			loaded, err = loadText(path, rel)
		case ".yaml", ".yml":
			loaded, err = loadYAML(path, rel)
		default:
			return nil
		}
		if err != nil {
			return err
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading corpus %s: %w", dir, err)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Source != docs[j].Source {
			return docs[i].Source < docs[j].Source
		}
		return docs[i].Page < docs[j].Page
	})
	return docs, nil
}

func loadText(path, source string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []Document
	for i, page := range strings.Split(string(data), "\f") {
		if d, ok := newDocument(source, i+1, page); ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func loadYAML(path, source string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var y yamlDocument
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if y.Source != "" {
		source = y.Source
	}
	var docs []Document
	for i, p := range y.Pages {
		page := p.Page
		if page <= 0 {
			page = i + 1
		}
		text := p.Text
		if p.Title != "" {
			text = p.Title + "\n" + text
		}
		if d, ok := newDocument(source, page, text); ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func newDocument(source string, page int, raw string) (Document, bool) {
	text := Clean(raw)
	if utf8.RuneCountInString(text) < MinPageRunes {
		return Document{}, false
	}
	return Document{Source: source, Page: page, Text: text}, true
}
