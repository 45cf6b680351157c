// Package analyzer turns a unified diff and the list of staged files into a
// structured description of the change: touched symbols, change patterns,
// per-file importance and an overall complexity class.
//
// Analysis is a pure function of its inputs and performs no I/O.
package analyzer

import (
	"sort"
	"strings"

	"github.com/thomas-vilte/commitlens/internal/models"
)

type Analyzer struct {
	matchers []SymbolMatcher
}

type Option func(*Analyzer)

// WithSymbolMatchers replaces the ordered matcher list used for symbol extraction.
func WithSymbolMatchers(matchers []SymbolMatcher) Option {
	return func(a *Analyzer) {
		a.matchers = matchers
	}
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{matchers: DefaultSymbolMatchers}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze never fails: malformed or empty input yields a degenerate but
// well-formed analysis.
func (a *Analyzer) Analyze(diff string, files []string) models.DiffAnalysis {
	entries := mergeFiles(parseUnifiedDiff(diff), files)

	symbols := make([]models.ModifiedSymbol, 0)
	relationships := make([]models.FileRelationship, 0)
	seen := make(map[symbolKey]bool)
	for _, e := range entries {
		if e.class != classSource && e.class != classOther {
			continue
		}
		symbols = append(symbols, extractSymbols(a.matchers, e.diff.path, e.diff.added, seen)...)
		relationships = append(relationships, extractImports(e.diff.path, e.diff.added)...)
	}

	patterns := detectPatterns(patternInput{files: entries, symbols: symbols})
	changes, summary := summarize(entries)
	summary.ChangedSymbols = len(symbols)

	return models.DiffAnalysis{
		ModifiedSymbols:   symbols,
		ChangePatterns:    patterns,
		FileRelationships: relationships,
		FileChanges:       changes,
		Complexity:        ClassifyComplexity(summary.TotalFiles, summary.TotalChangedLines(), len(symbols)),
		Summary:           summary,
	}
}

// mergeFiles keeps diff order and appends staged files the diff did not mention.
func mergeFiles(diffs []*fileDiff, files []string) []*fileEntry {
	byPath := make(map[string]bool, len(diffs)+len(files))
	entries := make([]*fileEntry, 0, len(diffs)+len(files))

	for _, d := range diffs {
		if d.path == "" || byPath[d.path] {
			continue
		}
		byPath[d.path] = true
		entries = append(entries, &fileEntry{diff: d, class: classifyFile(d.path)})
	}
	for _, f := range files {
		f = strings.TrimSpace(f)
		if f == "" || byPath[f] {
			continue
		}
		byPath[f] = true
		entries = append(entries, &fileEntry{diff: &fileDiff{path: f}, class: classifyFile(f)})
	}
	return entries
}

func summarize(entries []*fileEntry) ([]models.FileChange, models.DiffSummary) {
	changes := make([]models.FileChange, 0, len(entries))
	var summary models.DiffSummary

	for _, e := range entries {
		fc := models.FileChange{
			Path:         e.diff.path,
			LinesAdded:   len(e.diff.added),
			LinesRemoved: len(e.diff.removed),
			IsNew:        e.diff.isNew,
			ChangeType:   models.FileModified,
		}
		switch {
		case e.diff.isNew:
			fc.ChangeType = models.FileCreated
			summary.NewFiles++
		case e.diff.isDeleted:
			fc.ChangeType = models.FileDeleted
			summary.DeletedFiles++
		}
		fc.Importance = fileImportance(fc.Path, e.class, fc.IsNew, fc.TotalChangedLines())

		switch e.class {
		case classTest:
			summary.TestFiles++
		case classSource:
			summary.SourceFiles++
		}
		summary.LinesAdded += fc.LinesAdded
		summary.LinesRemoved += fc.LinesRemoved
		changes = append(changes, fc)
	}
	summary.TotalFiles = len(changes)

	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Importance.Rank() != b.Importance.Rank() {
			return a.Importance.Rank() > b.Importance.Rank()
		}
		if a.TotalChangedLines() != b.TotalChangedLines() {
			return a.TotalChangedLines() > b.TotalChangedLines()
		}
		return a.Path < b.Path
	})

	return changes, summary
}
