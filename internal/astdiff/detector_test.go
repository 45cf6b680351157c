package astdiff

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/thomas-vilte/commitlens/internal/models"
)

func impactsOfKind(a models.ASTAnalysis, kind models.SemanticImpactKind) []models.SemanticImpact {
	var out []models.SemanticImpact
	for _, i := range a.SemanticImpacts {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

func TestSupportsFile(t *testing.T) {
	d := NewDetector()

	for path, want := range map[string]bool{
		"src/app.ts":      true,
		"src/App.TSX":     true,
		"lib/index.js":    true,
		"tools/build.py":  true,
		"internal/x.go":   true,
		"crates/a/lib.rs": true,
		"app/models.rb":   false,
		"README.md":       false,
		"Makefile":        false,
	} {
		assert.Equal(t, want, d.SupportsFile(path), path)
	}
}

func TestAnalyzeFileAST_FunctionRenameSameBody(t *testing.T) {
	defer goleak.VerifyNone(t)

	oldSrc := []byte(`export function calculateTotal(items: number[]): number {
  return items.reduce((sum, item) => sum + item, 0);
}
`)
	newSrc := []byte(`export function computeTotal(items: number[]): number {
  return items.reduce((sum, item) => sum + item, 0);
}
`)

	got := NewDetector().AnalyzeFileAST(context.Background(), "src/total.ts", oldSrc, newSrc)

	want := []models.Refactoring{{
		Kind:        models.RefactorFunctionRename,
		From:        "calculateTotal",
		To:          "computeTotal",
		Confidence:  0.95,
		File:        "src/total.ts",
		Description: "function calculateTotal renamed to computeTotal (100% body similarity)",
	}}
	if diff := cmp.Diff(want, got.Refactorings); diff != "" {
		t.Errorf("Refactorings mismatch (-want +got):\n%s", diff)
	}
	assert.GreaterOrEqual(t, got.Refactorings[0].Confidence, 0.9)
}

func TestAnalyzeFileAST_RenameWithRewrittenBody(t *testing.T) {
	oldSrc := []byte(`export function calculateTotal(items: number[]): number {
  return items.reduce((sum, item) => sum + item, 0);
}
`)
	newSrc := []byte(`export function computeTotal(orders: Order[]): Money {
  const subtotal = orders.map(o => o.price * o.quantity);
  const discounted = applyDiscounts(subtotal, currentPromotions());
  return Money.fromCents(discounted.reduce((a, b) => a + b, 0));
}
`)

	got := NewDetector().AnalyzeFileAST(context.Background(), "src/total.ts", oldSrc, newSrc)

	assert.Empty(t, got.Refactorings)
	require.Len(t, impactsOfKind(got, models.ImpactBreakingChange), 1)
}

func TestAnalyzeFileAST_MethodRename(t *testing.T) {
	oldSrc := []byte(`class User {
  getName(): string {
    return this.first + " " + this.last;
  }
  private cache(): void {}
}
`)
	newSrc := []byte(`class User {
  fullName(): string {
    return this.first + " " + this.last;
  }
  private cache(): void {}
}
`)

	got := NewDetector().AnalyzeFileAST(context.Background(), "src/user.ts", oldSrc, newSrc)

	require.Len(t, got.Refactorings, 1)
	assert.Equal(t, models.RefactorMethodRename, got.Refactorings[0].Kind)
	assert.Equal(t, "User.getName", got.Refactorings[0].From)
	assert.Equal(t, "User.fullName", got.Refactorings[0].To)
	assert.Equal(t, 0.9, got.Refactorings[0].Confidence)
}

func TestAnalyzeFileAST_AddedPublicFunctionIsNotBreaking(t *testing.T) {
	oldSrc := []byte(`def load(path):
    with open(path) as f:
        return f.read()
`)
	newSrc := []byte(`def load(path):
    with open(path) as f:
        return f.read()


def save(path, data):
    with open(path, "w") as f:
        f.write(data)
`)

	got := NewDetector().AnalyzeFileAST(context.Background(), "store/files.py", oldSrc, newSrc)

	assert.Empty(t, got.SemanticImpacts)
	require.Len(t, got.StructuralChanges, 1)
	change := got.StructuralChanges[0]
	assert.Equal(t, models.StructuralAdded, change.Kind)
	assert.Equal(t, "save", change.Name)
	assert.True(t, change.IsPublicAPI)
	require.NotNil(t, change.LineRange)
	assert.Equal(t, 6, change.LineRange.Start)
}

func TestAnalyzeFileAST_RemovedPublicFunctionIsBreaking(t *testing.T) {
	oldSrc := []byte(`package parse

func Parse(s string) int {
	return len(s)
}

func helper() int {
	return 1
}
`)
	newSrc := []byte(`package parse
`)

	got := NewDetector().AnalyzeFileAST(context.Background(), "parse/parse.go", oldSrc, newSrc)

	breaking := impactsOfKind(got, models.ImpactBreakingChange)
	require.Len(t, breaking, 1)
	assert.Equal(t, models.SeverityHigh, breaking[0].Severity)
	assert.Contains(t, breaking[0].Description, "Parse")
	assert.Len(t, got.StructuralChanges, 2)
}

func longTotal(result int) []byte {
	var b strings.Builder
	b.WriteString("export function total(values: number[]): number {\n  let acc = 0;\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "  acc += values[%d] * %d;\n", i, i+1)
	}
	fmt.Fprintf(&b, "  return acc + %d;\n}\n", result)
	return []byte(b.String())
}

func TestAnalyzeFileAST_SmallEditIsNotModified(t *testing.T) {
	oldSrc, newSrc := longTotal(1), longTotal(2)
	require.Greater(t, len(oldSrc), 800)

	got := NewDetector().AnalyzeFileAST(context.Background(), "src/total.ts", oldSrc, newSrc)

	assert.Empty(t, got.StructuralChanges)
	assert.Empty(t, got.SemanticImpacts)
}

func TestAnalyzeFileAST_OneImpactPerFile(t *testing.T) {
	oldSrc := []byte(`export function a(x: number): number {
  return x + 1;
}

export function b(): string {
  return "b";
}
`)
	modifiedOnly := []byte(`export function a(x: number): number {
  const doubled = x * 2;
  return doubled - x + 1;
}

export function b(): string {
  return "b";
}
`)
	mixed := []byte(`export function a(x: number): number {
  const doubled = x * 2;
  return doubled - x + 1;
}

export function c(): boolean {
  return true;
}
`)

	tests := []struct {
		name     string
		newSrc   []byte
		want     models.SemanticImpactKind
		severity models.Severity
		mentions string
	}{
		{"removal wins over modification and addition", mixed, models.ImpactBreakingChange, models.SeverityHigh, "b"},
		{"modification alone", modifiedOnly, models.ImpactAPIChange, models.SeverityMedium, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDetector().AnalyzeFileAST(context.Background(), "src/ops.ts", oldSrc, tt.newSrc)

			require.Len(t, got.SemanticImpacts, 1)
			assert.Equal(t, tt.want, got.SemanticImpacts[0].Kind)
			assert.Equal(t, tt.severity, got.SemanticImpacts[0].Severity)
			assert.Contains(t, got.SemanticImpacts[0].Description, tt.mentions)
		})
	}
}

func TestAnalyzeFileAST_PrivatePythonRemovalIsNotBreaking(t *testing.T) {
	oldSrc := []byte(`class Repo:
    def _connect(self):
        return None

    def __init__(self):
        self.conn = self._connect()
`)
	newSrc := []byte(`class Repo:
    def __init__(self):
        self.conn = None
`)

	got := NewDetector().AnalyzeFileAST(context.Background(), "repo.py", oldSrc, newSrc)

	assert.Empty(t, impactsOfKind(got, models.ImpactBreakingChange))
	assert.NotEmpty(t, impactsOfKind(got, models.ImpactAPIChange))
}

func TestAnalyzeFileAST_TypeAndDependencyChanges(t *testing.T) {
	oldSrc := []byte(`package order

import "fmt"

type Order struct {
	ID string
}

func (o Order) String() string { return fmt.Sprint(o.ID) }
`)
	newSrc := []byte(`package order

import (
	"fmt"
	"time"
)

type Order struct {
	ID        string
	CreatedAt time.Time
}

func (o Order) String() string { return fmt.Sprint(o.ID) }
`)

	got := NewDetector().AnalyzeFileAST(context.Background(), "order/order.go", oldSrc, newSrc)

	require.Len(t, impactsOfKind(got, models.ImpactTypeChange), 1)
	deps := impactsOfKind(got, models.ImpactDependencyChange)
	require.Len(t, deps, 1)
	assert.Equal(t, "imports added time", deps[0].Description)
	assert.Empty(t, impactsOfKind(got, models.ImpactBreakingChange))

	require.Len(t, got.StructuralChanges, 1)
	assert.Equal(t, models.StructuralModified, got.StructuralChanges[0].Kind)
	assert.Equal(t, "Order", got.StructuralChanges[0].Name)
	assert.Equal(t, "class", got.StructuralChanges[0].NodeKind)
}

func TestAnalyzeFileAST_ExtractMethod(t *testing.T) {
	oldSrc := []byte(`package calc

func Process(items []int) int {
	total := 0
	for _, it := range items {
		total += it * 2
	}
	return total
}
`)
	newSrc := []byte(`package calc

func Process(items []int) int {
	return double(items)
}

func double(items []int) int {
	total := 0
	for _, it := range items {
		total += it * 2
	}
	return total
}
`)

	got := NewDetector().AnalyzeFileAST(context.Background(), "calc/calc.go", oldSrc, newSrc)

	require.Len(t, got.Refactorings, 1)
	assert.Equal(t, models.RefactorExtractMethod, got.Refactorings[0].Kind)
	assert.Equal(t, "Process", got.Refactorings[0].From)
	assert.Equal(t, "double", got.Refactorings[0].To)
}

func TestAnalyzeFileAST_FallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		path string
		old  string
		new  string
	}{
		{"unsupported language", "app/models.rb", "def a; end", "def b; end"},
		{"syntax error in new version", "src/a.ts", "function a() { return 1; }", "function a( { return 1; "},
		{"syntax error in old version", "main.go", "package main\nfunc (", "package main\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDetector().AnalyzeFileAST(context.Background(), tt.path, []byte(tt.old), []byte(tt.new))

			assert.Equal(t, models.EmptyASTAnalysis(tt.path), got)
			assert.True(t, got.IsEmpty())
			assert.NotNil(t, got.Refactorings)
			assert.NotNil(t, got.StructuralChanges)
			assert.NotNil(t, got.SemanticImpacts)
		})
	}
}

func TestAnalyzeFileAST_NoChanges(t *testing.T) {
	src := []byte("export const answer = () => 42;\n")

	got := NewDetector().AnalyzeFileAST(context.Background(), "a.js", src, src)

	assert.True(t, got.IsEmpty())
}

func TestAnalyzeAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := []FileVersions{
		{Path: "README.md", Old: []byte("a"), New: []byte("b")},
		{Path: "a.go", Old: []byte("package a\n\nfunc Old() {}\n"), New: []byte("package a\n")},
		{Path: "b.py", Old: nil, New: []byte("def run():\n    pass\n")},
	}

	got := NewDetector(WithConcurrency(2)).AnalyzeAll(context.Background(), files)

	require.Len(t, got, 2)
	assert.Equal(t, "a.go", got[0].File)
	assert.True(t, got[0].HasBreakingChange())
	assert.Equal(t, "b.py", got[1].File)
	assert.False(t, got[1].HasBreakingChange())
	require.Len(t, got[1].StructuralChanges, 1)
	assert.Equal(t, models.StructuralAdded, got[1].StructuralChanges[0].Kind)
}

func TestAnalyzeAll_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewDetector().AnalyzeAll(ctx, []FileVersions{
		{Path: "a.go", Old: []byte("package a\n\nfunc Old() {}\n"), New: []byte("package a\n")},
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].IsEmpty())
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "abc", "abc", 1},
		{"both empty", "", "", 1},
		{"one edit", "abcdefghij", "abcdefghiX", 0.9},
		{"length ratio short circuit", "ab", "abcdefghij", 0},
		{"ratio counts runes", "ñññññññññ", "ñññññññññx", 0.9},
		{"long whitespace only bodies", strings.Repeat(" ", 5000), strings.Repeat("\t", 5000), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarity(tt.a, tt.b, 0.9), 1e-9)
		})
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 3, levenshtein([]rune("kitten"), []rune("sitting")))
	assert.Equal(t, 2, levenshtein([]string{"a", "b", "c"}, []string{"a"}))
	assert.Equal(t, 0, levenshtein([]rune(""), []rune("")))
}
