// Package astdiff compares two versions of a source file through their syntax
// trees and reports renames, structural changes and their impact on the
// public API.
//
// Findings are an enrichment: every failure path yields an empty analysis.
package astdiff

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"golang.org/x/sync/errgroup"

	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/models"
)

type dialect int

const (
	dialectJS dialect = iota
	dialectPython
	dialectGo
	dialectRust
)

var errSyntax = errors.New("source contains syntax errors")

type grammar struct {
	language *sitter.Language
	dialect  dialect
}

// FileVersions is one file to compare. Old is empty for new files and New is
// empty for deleted ones.
type FileVersions struct {
	Path string
	Old  []byte
	New  []byte
}

type Detector struct {
	grammars    map[string]grammar
	concurrency int
}

type Option func(*Detector)

// WithConcurrency bounds how many files AnalyzeAll parses at once.
func WithConcurrency(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// NewDetector registers the grammars compiled into the binary.
func NewDetector(opts ...Option) *Detector {
	js := javascript.GetLanguage()
	d := &Detector{
		grammars: map[string]grammar{
			".js":  {js, dialectJS},
			".jsx": {js, dialectJS},
			".mjs": {js, dialectJS},
			".cjs": {js, dialectJS},
			".ts":  {typescript.GetLanguage(), dialectJS},
			".tsx": {tsx.GetLanguage(), dialectJS},
			".py":  {python.GetLanguage(), dialectPython},
			".go":  {golang.GetLanguage(), dialectGo},
			".rs":  {rust.GetLanguage(), dialectRust},
		},
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Detector) SupportsFile(path string) bool {
	_, ok := d.grammars[strings.ToLower(filepath.Ext(path))]
	return ok
}

// AnalyzeFileAST never returns an error. Unsupported languages, parse
// errors in either version, cancellation and internal panics all produce
// the empty analysis.
func (d *Detector) AnalyzeFileAST(ctx context.Context, path string, oldContent, newContent []byte) (result models.ASTAnalysis) {
	result = models.EmptyASTAnalysis(path)

	g, ok := d.grammars[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn(ctx, "syntax tree analysis panicked", "file", path, "panic", fmt.Sprint(r))
			result = models.EmptyASTAnalysis(path)
		}
	}()

	oldFile, err := parseFile(ctx, g, oldContent)
	if err != nil {
		logger.Debug(ctx, "skipping syntax tree analysis", "file", path, "version", "old", "reason", err.Error())
		return result
	}
	newFile, err := parseFile(ctx, g, newContent)
	if err != nil {
		logger.Debug(ctx, "skipping syntax tree analysis", "file", path, "version", "new", "reason", err.Error())
		return result
	}

	compare(path, oldFile, newFile, &result)
	return result
}

// AnalyzeAll runs AnalyzeFileAST over every supported file with bounded
// concurrency. Results keep input order; unsupported files are skipped.
func (d *Detector) AnalyzeAll(ctx context.Context, files []FileVersions) []models.ASTAnalysis {
	supported := make([]FileVersions, 0, len(files))
	for _, f := range files {
		if d.SupportsFile(f.Path) {
			supported = append(supported, f)
		}
	}

	results := make([]models.ASTAnalysis, len(supported))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, f := range supported {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = models.EmptyASTAnalysis(f.Path)
				return nil
			}
			results[i] = d.AnalyzeFileAST(gctx, f.Path, f.Old, f.New)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func parseFile(ctx context.Context, g grammar, content []byte) (*sourceFile, error) {
	if len(content) == 0 {
		return &sourceFile{}, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.language)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errSyntax
	}

	return extract(g.dialect, root, content), nil
}
