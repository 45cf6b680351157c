package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/config"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/models"
	"github.com/thomas-vilte/commitlens/internal/services"
)

type stubAnalyzer struct {
	report *services.AnalysisReport
	err    error
}

func (s stubAnalyzer) Analyze(context.Context) (*services.AnalysisReport, error) {
	return s.report, s.err
}

func sampleReport() *services.AnalysisReport {
	return &services.AnalysisReport{
		Changes: models.StagedChanges{Branch: "feature/rename", Files: []string{"src/calc.ts"}},
		Analysis: models.DiffAnalysis{
			Complexity: models.ComplexitySimple,
			Summary:    models.DiffSummary{TotalFiles: 1, LinesAdded: 3, LinesRemoved: 3},
			FileChanges: []models.FileChange{
				{Path: "src/calc.ts", LinesAdded: 3, LinesRemoved: 3, ChangeType: models.FileModified},
			},
		},
		AST: []models.ASTAnalysis{{
			File:              "src/calc.ts",
			Refactorings:      []models.Refactoring{{Kind: models.RefactorFunctionRename, From: "calc", To: "compute", File: "src/calc.ts", Confidence: 0.95}},
			StructuralChanges: []models.StructuralChange{},
			SemanticImpacts:   []models.SemanticImpact{{Kind: models.ImpactBreakingChange, File: "src/calc.ts", Severity: models.SeverityHigh, Description: "public function calc removed"}},
		}},
	}
}

func run(t *testing.T, a Analyzer, cfg *config.Config, args ...string) (string, *config.Config, error) {
	color.NoColor = true
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)

	var received *config.Config
	factory := NewAnalyzeCommandFactory(func(ctx context.Context, c *config.Config) (Analyzer, error) {
		received = c
		return a, nil
	})
	var out bytes.Buffer
	app := &cli.Command{Writer: &out, Commands: []*cli.Command{factory.CreateCommand(translations, cfg)}}
	err = app.Run(context.Background(), append([]string{"commitlens", "analyze"}, args...))
	return out.String(), received, err
}

func TestAnalyzeCommand(t *testing.T) {
	t.Run("renders findings", func(t *testing.T) {
		out, _, err := run(t, stubAnalyzer{report: sampleReport()}, config.Default())

		require.NoError(t, err)
		assert.Contains(t, out, "feature/rename")
		assert.Contains(t, out, "simple")
		assert.Contains(t, out, "function_rename: calc -> compute")
		assert.Contains(t, out, "breaking_change [high]")
		assert.Contains(t, out, "calc.ts (+3, -3)")
	})

	t.Run("json output", func(t *testing.T) {
		out, _, err := run(t, stubAnalyzer{report: sampleReport()}, config.Default(), "--json")

		require.NoError(t, err)
		var decoded services.AnalysisReport
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, "feature/rename", decoded.Changes.Branch)
		require.Len(t, decoded.AST, 1)
		assert.Equal(t, "compute", decoded.AST[0].Refactorings[0].To)
	})

	t.Run("no-ast disables the detector for this run only", func(t *testing.T) {
		cfg := config.Default()
		_, received, err := run(t, stubAnalyzer{report: sampleReport()}, cfg, "--no-ast")

		require.NoError(t, err)
		assert.False(t, received.AST.Enabled)
		assert.True(t, cfg.AST.Enabled)
	})

	t.Run("propagates analysis errors", func(t *testing.T) {
		_, _, err := run(t, stubAnalyzer{err: apperrors.ErrNoStagedFiles}, config.Default())

		assert.True(t, errors.Is(err, apperrors.ErrNoStagedFiles))
	})
}
