package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/commitlens/internal/models"
)

type diffFile struct {
	path    string
	isNew   bool
	deleted bool
	added   []string
	removed []string
}

func buildDiff(files ...diffFile) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", f.path, f.path)
		switch {
		case f.isNew:
			b.WriteString("new file mode 100644\n--- /dev/null\n")
			fmt.Fprintf(&b, "+++ b/%s\n", f.path)
		case f.deleted:
			b.WriteString("deleted file mode 100644\n")
			fmt.Fprintf(&b, "--- a/%s\n+++ /dev/null\n", f.path)
		default:
			fmt.Fprintf(&b, "index 1a2b3c4..5d6e7f8 100644\n--- a/%s\n+++ b/%s\n", f.path, f.path)
		}
		fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", len(f.removed), len(f.added))
		for _, l := range f.removed {
			b.WriteString("-" + l + "\n")
		}
		for _, l := range f.added {
			b.WriteString("+" + l + "\n")
		}
	}
	return b.String()
}

func paths(files ...diffFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out
}

func TestAnalyze_SourceWithTest(t *testing.T) {
	src := diffFile{
		path:  "src/calc.ts",
		isNew: true,
		added: []string{
			"export function calc(a: number, b: number): number {",
			"  return a + b;",
			"}",
		},
	}
	test := diffFile{
		path:  "src/calc.test.ts",
		isNew: true,
		added: []string{
			"import { calc } from './calc';",
			"",
			"test('adds two numbers', () => {",
			"  function helper() { return 1; }",
			"  expect(calc(1, 2)).toBe(3);",
			"});",
		},
	}

	a := New().Analyze(buildDiff(src, test), paths(src, test))

	assert.Equal(t, []models.ModifiedSymbol{
		{File: "src/calc.ts", Name: "calc", Kind: models.SymbolFunction},
	}, a.ModifiedSymbols)
	assert.Empty(t, a.SymbolsInFile("src/calc.test.ts"))
	require.True(t, a.HasPattern(models.PatternTestAddition))

	for _, p := range a.ChangePatterns {
		if p.Kind == models.PatternTestAddition {
			assert.Equal(t, 0.9, p.Confidence)
			assert.Equal(t, 1, p.Occurrences)
		}
	}

	assert.Equal(t, 2, a.Summary.TotalFiles)
	assert.Equal(t, 1, a.Summary.SourceFiles)
	assert.Equal(t, 1, a.Summary.TestFiles)
	assert.Equal(t, 2, a.Summary.NewFiles)
	assert.Equal(t, models.ComplexitySimple, a.Complexity)
}

func TestAnalyze_LargeChangeIsComplex(t *testing.T) {
	var files []diffFile
	for i := 0; i < 6; i++ {
		lines := make([]string, 42)
		for j := range lines {
			lines[j] = fmt.Sprintf("\tvalue%d := compute(%d)", j, j)
		}
		files = append(files, diffFile{path: fmt.Sprintf("pkg/part%d.go", i), added: lines[:41], removed: lines[41:]})
	}

	a := New().Analyze(buildDiff(files...), paths(files...))

	assert.Equal(t, 6, a.Summary.TotalFiles)
	assert.Equal(t, 252, a.Summary.TotalChangedLines())
	assert.Equal(t, models.ComplexityComplex, a.Complexity)
}

func TestClassifyComplexity(t *testing.T) {
	tests := []struct {
		name    string
		files   int
		lines   int
		symbols int
		want    models.Complexity
	}{
		{"empty", 0, 0, 0, models.ComplexitySimple},
		{"upper edge of simple", 2, 49, 3, models.ComplexitySimple},
		{"third file", 3, 10, 0, models.ComplexityModerate},
		{"fifty lines", 2, 50, 0, models.ComplexityModerate},
		{"fourth symbol", 2, 10, 4, models.ComplexityModerate},
		{"upper edge of moderate", 5, 200, 10, models.ComplexityModerate},
		{"sixth file", 6, 10, 0, models.ComplexityComplex},
		{"many lines", 1, 201, 0, models.ComplexityComplex},
		{"many symbols", 1, 10, 11, models.ComplexityComplex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyComplexity(tt.files, tt.lines, tt.symbols))
		})
	}
}

func TestAnalyze_OnlyTestFiles(t *testing.T) {
	test := diffFile{
		path:    "internal/order/order_test.go",
		added:   []string{"func TestOrderTotal(t *testing.T) {", "func helperBuild() *Order {"},
		removed: []string{"func TestTotal(t *testing.T) {"},
	}

	a := New().Analyze(buildDiff(test), paths(test))

	assert.Empty(t, a.ModifiedSymbols)
	assert.True(t, a.HasPattern(models.PatternTestAddition))
	assert.True(t, a.HasPattern(models.PatternTestModification))
	require.Len(t, a.FileChanges, 1)
	assert.Equal(t, models.ImportanceLow, a.FileChanges[0].Importance)
}

func TestAnalyze_TestConfidenceHalvedWhenSourceDominates(t *testing.T) {
	files := []diffFile{
		{path: "a.go", added: []string{"x := 1"}},
		{path: "b.go", added: []string{"y := 2"}},
		{path: "a_test.go", isNew: true, added: []string{"func TestA(t *testing.T) {}"}},
	}

	a := New().Analyze(buildDiff(files...), paths(files...))

	var found bool
	for _, p := range a.ChangePatterns {
		if p.Kind == models.PatternTestAddition {
			found = true
			assert.Equal(t, 0.45, p.Confidence)
		}
	}
	assert.True(t, found)
}

func TestAnalyze_PatternsSortedAndBounded(t *testing.T) {
	files := []diffFile{
		{path: "README.md", added: []string{"## Usage", "Run the binary."}},
		{path: "config.yaml", added: []string{"timeout: 30s"}},
		{path: "go.mod", added: []string{"require github.com/google/uuid v1.6.0"}},
		{
			path:  "internal/service/payment.go",
			isNew: true,
			added: []string{
				"type PaymentService struct {",
				"type Gateway interface {",
				"func (s *PaymentService) Charge(ctx context.Context) error {",
				"\tif err != nil {",
				"\t\treturn fmt.Errorf(\"charge: %w\", err)",
				"\t}",
				"\t// fix nil check on retry, cache the client",
				"}",
				"func NewPaymentService() *PaymentService {",
				"const MAX_RETRIES = 3",
			},
		},
	}

	a := New().Analyze(buildDiff(files...), paths(files...))

	require.NotEmpty(t, a.ChangePatterns)
	confidences := make([]float64, len(a.ChangePatterns))
	for i, p := range a.ChangePatterns {
		assert.GreaterOrEqual(t, p.Confidence, 0.0)
		assert.LessOrEqual(t, p.Confidence, 1.0)
		confidences[i] = p.Confidence
	}
	assert.IsNonIncreasing(t, confidences)

	for _, kind := range []models.ChangePatternKind{
		models.PatternDocumentation,
		models.PatternConfiguration,
		models.PatternDependencyUpdate,
		models.PatternErrorHandling,
		models.PatternBugFix,
		models.PatternTypeDefinition,
		models.PatternFeatureAddition,
		models.PatternPerformance,
	} {
		assert.True(t, a.HasPattern(kind), "expected pattern %s", kind)
	}
}

func TestAnalyze_DocumentationOnly(t *testing.T) {
	doc := diffFile{path: "docs/guide.md", added: []string{"# Guide"}}

	a := New().Analyze(buildDiff(doc), paths(doc))

	require.Len(t, a.ChangePatterns, 1)
	assert.Equal(t, models.PatternDocumentation, a.ChangePatterns[0].Kind)
	assert.Equal(t, 0.9, a.ChangePatterns[0].Confidence)
	assert.Empty(t, a.ModifiedSymbols)
}

func TestAnalyze_CodeMovement(t *testing.T) {
	moved := []string{
		"result, err := svc.ProcessOrder(ctx, order)",
		"if err != nil { return nil, err }",
		"metrics.Observe(\"orders_processed\", 1)",
		"logger.Info(\"order processed\", \"id\", order.ID)",
	}
	indented := make([]string, len(moved))
	for i, l := range moved {
		indented[i] = "\t\t" + l
	}
	f := diffFile{path: "internal/orders/handler.go", removed: moved, added: indented}

	a := New().Analyze(buildDiff(f), paths(f))

	assert.True(t, a.HasPattern(models.PatternRefactoring))
}

func TestAnalyze_FewMovedLinesIsNotRefactoring(t *testing.T) {
	f := diffFile{
		path:    "internal/orders/handler.go",
		removed: []string{"result, err := svc.ProcessOrder(ctx, order)", "short"},
		added:   []string{"\tresult, err := svc.ProcessOrder(ctx, order)", "short"},
	}

	a := New().Analyze(buildDiff(f), paths(f))

	assert.False(t, a.HasPattern(models.PatternRefactoring))
}

func TestAnalyze_FileChangesOrdering(t *testing.T) {
	big := make([]string, 25)
	for i := range big {
		big[i] = fmt.Sprintf("\tstep%d()", i)
	}
	files := []diffFile{
		{path: "README.md", added: []string{"notes"}},
		{path: "pkg/util/strings.go", added: []string{"\treturn s"}},
		{path: "internal/services/order.go", added: big},
		{path: "cmd/old/main.go", deleted: true, removed: []string{"package main"}},
	}

	a := New().Analyze(buildDiff(files...), append(paths(files...), "scripts/extra.sh"))

	got := make([]string, len(a.FileChanges))
	for i, fc := range a.FileChanges {
		got[i] = fmt.Sprintf("%s:%s", fc.Path, fc.Importance)
	}
	assert.Equal(t, []string{
		"internal/services/order.go:high",
		"cmd/old/main.go:medium",
		"pkg/util/strings.go:medium",
		"scripts/extra.sh:medium",
		"README.md:low",
	}, got)

	assert.Equal(t, models.FileDeleted, a.FileChanges[1].ChangeType)
	assert.Equal(t, 1, a.Summary.DeletedFiles)
	assert.Equal(t, 5, a.Summary.TotalFiles)
}

func TestFileImportance(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		isNew   bool
		changed int
		want    models.Importance
	}{
		{"new source file", "pkg/api/client.go", true, 3, models.ImportanceHigh},
		{"new test file", "pkg/api/client_test.go", true, 300, models.ImportanceLow},
		{"markdown", "CHANGELOG.md", false, 500, models.ImportanceLow},
		{"core path over threshold", "src/domain/user.ts", false, 21, models.ImportanceHigh},
		{"core path under threshold", "src/domain/user.ts", false, 20, models.ImportanceMedium},
		{"large source change", "lib/parser.py", false, 51, models.ImportanceHigh},
		{"small source change", "lib/parser.py", false, 50, models.ImportanceMedium},
		{"config file", "deploy/values.yaml", true, 100, models.ImportanceMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fileImportance(tt.path, classifyFile(tt.path), tt.isNew, tt.changed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := New().Analyze("", nil)

	assert.NotNil(t, a.ModifiedSymbols)
	assert.NotNil(t, a.ChangePatterns)
	assert.NotNil(t, a.FileRelationships)
	assert.NotNil(t, a.FileChanges)
	assert.Empty(t, a.FileChanges)
	assert.Equal(t, models.ComplexitySimple, a.Complexity)
}

func TestAnalyze_MalformedInput(t *testing.T) {
	a := New().Analyze("+++ nothing here\n@@ garbage\n+func Orphan() {}\n", []string{"main.go"})

	require.Len(t, a.FileChanges, 1)
	assert.Equal(t, "main.go", a.FileChanges[0].Path)
	assert.Empty(t, a.ModifiedSymbols)
}

func TestAnalyze_Relationships(t *testing.T) {
	files := []diffFile{
		{path: "web/app.ts", added: []string{
			"import { render } from 'react-dom';",
			"import './styles.css';",
			"const fs = require('fs');",
		}},
		{path: "svc/main.go", added: []string{
			"\t\"context\"",
			"\tlog \"log/slog\"",
			"import \"errors\"",
		}},
		{path: "tools/run.py", added: []string{"from pathlib import Path", "import os"}},
	}

	a := New().Analyze(buildDiff(files...), paths(files...))

	var got []string
	for _, r := range a.FileRelationships {
		assert.Equal(t, models.RelationshipImport, r.Kind)
		got = append(got, r.From+"->"+r.To)
	}
	assert.Equal(t, []string{
		"web/app.ts->react-dom",
		"web/app.ts->./styles.css",
		"web/app.ts->fs",
		"svc/main.go->context",
		"svc/main.go->log/slog",
		"svc/main.go->errors",
		"tools/run.py->pathlib",
		"tools/run.py->os",
	}, got)
}

func TestAnalyze_DuplicateSymbolsCollapse(t *testing.T) {
	f := diffFile{path: "lib/a.js", added: []string{
		"function load() {",
		"function load() {",
		"export const load = async () => {",
	}}

	a := New().Analyze(buildDiff(f), paths(f))

	assert.Equal(t, []models.ModifiedSymbol{{File: "lib/a.js", Name: "load", Kind: models.SymbolFunction}}, a.ModifiedSymbols)
}

func TestAnalyze_CustomMatchers(t *testing.T) {
	only := []SymbolMatcher{DefaultSymbolMatchers[0]}
	f := diffFile{path: "lib/a.ts", added: []string{"function run() {", "class Runner {"}}

	a := New(WithSymbolMatchers(only)).Analyze(buildDiff(f), paths(f))

	require.Len(t, a.ModifiedSymbols, 1)
	assert.Equal(t, "run", a.ModifiedSymbols[0].Name)
}

func TestParseUnifiedDiff_Rename(t *testing.T) {
	diff := "diff --git a/old/name.go b/new/name.go\n" +
		"similarity index 90%\n" +
		"rename from old/name.go\n" +
		"rename to new/name.go\n" +
		"@@ -1 +1 @@\n" +
		"-package old\n" +
		"+package name\n" +
		"\\ No newline at end of file\n"

	files := parseUnifiedDiff(diff)

	require.Len(t, files, 1)
	assert.Equal(t, "new/name.go", files[0].path)
	assert.Equal(t, []string{"package name"}, files[0].added)
	assert.Equal(t, []string{"package old"}, files[0].removed)
	assert.Len(t, files[0].blocks, 1)
}

func TestIsTestFile(t *testing.T) {
	tests := map[string]bool{
		"internal/x_test.go":       true,
		"src/calc.test.ts":         true,
		"src/calc.spec.js":         true,
		"tests/test_api.py":        true,
		"test_utils.py":            true,
		"src/__tests__/a.js":       true,
		"test/fixtures/data.json":  true,
		"internal/testing/fake.go": false,
		"src/contest.ts":           false,
		"latest/main.go":           false,
	}
	for p, want := range tests {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, want, isTestFile(p))
		})
	}
}
