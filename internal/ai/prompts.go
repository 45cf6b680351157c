package ai

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/thomas-vilte/commitlens/internal/models"
)

// Phase identifies which step of the commit pipeline a prompt serves.
type Phase string

const (
	PhaseGeneration   Phase = "generation"
	PhaseReflection   Phase = "reflection"
	PhaseVerification Phase = "verification"
	PhaseRefinement   Phase = "refinement"
)

// ReflectionCriteria are the names the critique scores individually.
var ReflectionCriteria = []string{
	"accuracy",
	"clarity",
	"conventional_format",
	"scope",
	"completeness",
	"conciseness",
}

// PromptData holds the parameters for template rendering
type PromptData struct {
	Files        string
	Diff         string
	Branch       string
	History      string
	Analysis     string
	ASTFindings  string
	MaxLength    int
	Candidate    string
	Iteration    int
	Criteria     string
	Issues       string
	Improvements string
	Verification string
}

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

const (
	systemPromptEN = `You are a senior software engineer who writes precise conventional commit messages. ` +
		`You only describe what the diff actually shows. Never invent files, functions or behaviour.`

	systemPromptES = `Sos un ingeniero de software senior que escribe mensajes de commit convencionales precisos. ` +
		`Solo describís lo que el diff muestra. Nunca inventes archivos, funciones ni comportamiento. ` +
		`Respondé en ESPAÑOL, pero mantené el tipo del commit (feat, fix, ...) en inglés.`

	reviewerSystemPromptEN = `You are a strict code reviewer evaluating commit messages. You answer with raw JSON only.`

	reviewerSystemPromptES = `Sos un revisor de código exigente que evalúa mensajes de commit. Respondés solo con JSON crudo. ` +
		`Los textos dentro del JSON van en español.`
)

const (
	generationTemplateEN = `# Task
  Write ONE conventional commit message for the staged changes below.

  # Inputs
  - Branch: {{.Branch}}
  - Modified Files: {{.Files}}
  - Recent History:
{{.History}}

  # Structural Analysis
{{.Analysis}}
{{if .ASTFindings}}
  # Syntax Tree Findings
{{.ASTFindings}}
{{end}}
  # Code Changes (Diff)
{{.Diff}}

  # Rules
  1. type is one of: feat, fix, refactor, docs, test, chore, perf, style, build, ci, revert.
  2. scope is optional, lowercase, one word taken from the touched area.
  3. subject: imperative mood, lowercase start, no trailing period, header at most {{.MaxLength}} characters.
  4. body: first person, explain what changed and why. Leave empty for trivial changes.
  5. breaking is true only if a public API was removed or changed incompatibly.

  # STRICT OUTPUT FORMAT
  Return ONLY a JSON object, no markdown fences, no extra text:
  {"type": "fix", "scope": "cli", "subject": "handle missing config file", "body": "I added a check ...", "breaking": false}`

	generationTemplateES = `# Tarea
  Escribí UN mensaje de commit convencional para los cambios en stage.

  # Entradas
  - Rama: {{.Branch}}
  - Archivos modificados: {{.Files}}
  - Historial reciente:
{{.History}}

  # Análisis estructural
{{.Analysis}}
{{if .ASTFindings}}
  # Hallazgos del árbol sintáctico
{{.ASTFindings}}
{{end}}
  # Cambios de código (Diff)
{{.Diff}}

  # Reglas
  1. type es uno de: feat, fix, refactor, docs, test, chore, perf, style, build, ci, revert.
  2. scope es opcional, en minúsculas, una palabra del área tocada.
  3. subject: modo imperativo, sin punto final, encabezado de {{.MaxLength}} caracteres como máximo.
  4. body: en primera persona, explicá qué cambió y por qué. Vacío para cambios triviales.
  5. breaking es true solo si se eliminó o cambió de forma incompatible una API pública.

  # FORMATO DE SALIDA ESTRICTO
  Devolvé SOLO un objeto JSON, sin bloques de markdown ni texto extra:
  {"type": "fix", "scope": "cli", "subject": "manejar archivo de config faltante", "body": "Agregué una validación ...", "breaking": false}`
)

const (
	reflectionTemplateEN = `# Task
  Critique the candidate commit message (iteration {{.Iteration}}) against the diff.

  # Candidate
{{.Candidate}}

  # Structural Analysis
{{.Analysis}}

  # Diff
{{.Diff}}

  # Criteria (score each 0-100)
{{.Criteria}}

  # Decision
  - "accept" when the message is accurate, clear and follows the conventional format.
  - "refine" when any criterion needs work. List concrete issues and improvements.

  # STRICT OUTPUT FORMAT
  Return ONLY this JSON object:
  {"decision": "accept|refine", "issues": ["..."], "improvements": ["..."], "reasoning": "...",
   "quality_score": 0-100, "criteria_scores": {"accuracy": 0-100, "clarity": 0-100, "conventional_format": 0-100,
   "scope": 0-100, "completeness": 0-100, "conciseness": 0-100}}`

	reflectionTemplateES = `# Tarea
  Criticá el mensaje de commit candidato (iteración {{.Iteration}}) contra el diff.

  # Candidato
{{.Candidate}}

  # Análisis estructural
{{.Analysis}}

  # Diff
{{.Diff}}

  # Criterios (puntuá cada uno de 0 a 100)
{{.Criteria}}

  # Decisión
  - "accept" cuando el mensaje es preciso, claro y respeta el formato convencional.
  - "refine" cuando algún criterio necesita trabajo. Listá problemas y mejoras concretas.

  # FORMATO DE SALIDA ESTRICTO
  Devolvé SOLO este objeto JSON (las claves en inglés):
  {"decision": "accept|refine", "issues": ["..."], "improvements": ["..."], "reasoning": "...",
   "quality_score": 0-100, "criteria_scores": {"accuracy": 0-100, "clarity": 0-100, "conventional_format": 0-100,
   "scope": 0-100, "completeness": 0-100, "conciseness": 0-100}}`
)

const (
	verificationTemplateEN = `# Task
  Verify every factual claim of the candidate commit message against the literal diff.

  # Candidate
{{.Candidate}}

  # Symbols detected in the diff
{{.Analysis}}
{{if .ASTFindings}}
  # Syntax Tree Findings
{{.ASTFindings}}
{{end}}
  # Diff
{{.Diff}}

  # Instructions
  1. verified_symbols: identifiers the message mentions that appear in the diff.
  2. hallucinated_symbols: identifiers the message mentions that do NOT appear in the diff.
  3. missing_symbols: important changed identifiers the message omits.
  4. has_critical_issues is true if the message claims behaviour the diff does not contain or has the wrong type.

  # STRICT OUTPUT FORMAT
  Return ONLY this JSON object:
  {"factual_accuracy": 0-100, "has_critical_issues": false, "issues": ["..."], "verified_symbols": ["..."],
   "missing_symbols": ["..."], "hallucinated_symbols": ["..."], "recommendations": ["..."], "reasoning": "..."}`

	verificationTemplateES = `# Tarea
  Verificá cada afirmación del mensaje de commit candidato contra el diff literal.

  # Candidato
{{.Candidate}}

  # Símbolos detectados en el diff
{{.Analysis}}
{{if .ASTFindings}}
  # Hallazgos del árbol sintáctico
{{.ASTFindings}}
{{end}}
  # Diff
{{.Diff}}

  # Instrucciones
  1. verified_symbols: identificadores que el mensaje menciona y aparecen en el diff.
  2. hallucinated_symbols: identificadores que el mensaje menciona y NO aparecen en el diff.
  3. missing_symbols: identificadores importantes modificados que el mensaje omite.
  4. has_critical_issues es true si el mensaje afirma comportamiento que el diff no contiene o usa un tipo incorrecto.

  # FORMATO DE SALIDA ESTRICTO
  Devolvé SOLO este objeto JSON (las claves en inglés):
  {"factual_accuracy": 0-100, "has_critical_issues": false, "issues": ["..."], "verified_symbols": ["..."],
   "missing_symbols": ["..."], "hallucinated_symbols": ["..."], "recommendations": ["..."], "reasoning": "..."}`
)

const (
	refinementTemplateEN = `# Task
  Improve the previous commit message using the review feedback. Keep what was correct.

  # Previous Candidate
{{.Candidate}}

  # Review Issues
{{.Issues}}

  # Suggested Improvements
{{.Improvements}}

  # Verification Feedback
{{.Verification}}

  # Structural Analysis
{{.Analysis}}

  # Diff
{{.Diff}}

  # Rules
  Same conventional commit rules as before. Header at most {{.MaxLength}} characters.
  Do not mention anything that is not in the diff.

  # STRICT OUTPUT FORMAT
  Return ONLY a JSON object:
  {"type": "...", "scope": "...", "subject": "...", "body": "...", "breaking": false}`

	refinementTemplateES = `# Tarea
  Mejorá el mensaje de commit anterior usando la revisión. Conservá lo que estaba bien.

  # Candidato anterior
{{.Candidate}}

  # Problemas señalados
{{.Issues}}

  # Mejoras sugeridas
{{.Improvements}}

  # Resultado de la verificación
{{.Verification}}

  # Análisis estructural
{{.Analysis}}

  # Diff
{{.Diff}}

  # Reglas
  Las mismas reglas de commit convencional. Encabezado de {{.MaxLength}} caracteres como máximo.
  No menciones nada que no esté en el diff.

  # FORMATO DE SALIDA ESTRICTO
  Devolvé SOLO un objeto JSON:
  {"type": "...", "scope": "...", "subject": "...", "body": "...", "breaking": false}`
)

// GetPromptTemplate returns the system prompt and user template for a phase.
func GetPromptTemplate(phase Phase, lang string) (system, user string) {
	es := lang == "es"

	switch phase {
	case PhaseReflection:
		if es {
			return reviewerSystemPromptES, reflectionTemplateES
		}
		return reviewerSystemPromptEN, reflectionTemplateEN
	case PhaseVerification:
		if es {
			return reviewerSystemPromptES, verificationTemplateES
		}
		return reviewerSystemPromptEN, verificationTemplateEN
	case PhaseRefinement:
		if es {
			return systemPromptES, refinementTemplateES
		}
		return systemPromptEN, refinementTemplateEN
	default:
		if es {
			return systemPromptES, generationTemplateES
		}
		return systemPromptEN, generationTemplateEN
	}
}

// BuildPrompt renders the phase template for lang.
func BuildPrompt(phase Phase, lang string, data PromptData) (system, user string, err error) {
	system, tmpl := GetPromptTemplate(phase, lang)
	if data.Criteria == "" {
		data.Criteria = FormatList(ReflectionCriteria)
	}
	user, err = RenderPrompt(string(phase), tmpl, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

// FormatList renders items as an indented bullet list, or "- none".
func FormatList(items []string) string {
	if len(items) == 0 {
		return "  - none"
	}
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("  - ")
		sb.WriteString(item)
	}
	return sb.String()
}

// FormatAnalysisForPrompt summarises the structural analysis for the model.
func FormatAnalysisForPrompt(a models.DiffAnalysis) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "  - Complexity: %s (%d files, +%d/-%d lines)\n",
		a.Complexity, a.Summary.TotalFiles, a.Summary.LinesAdded, a.Summary.LinesRemoved)

	if len(a.ChangePatterns) > 0 {
		sb.WriteString("  - Change patterns:\n")
		for _, p := range a.ChangePatterns {
			fmt.Fprintf(&sb, "    - %s (confidence %.2f): %s\n", p.Kind, p.Confidence, p.Description)
		}
	}

	if len(a.ModifiedSymbols) > 0 {
		sb.WriteString("  - Symbols:\n")
		for _, s := range a.ModifiedSymbols {
			fmt.Fprintf(&sb, "    - %s %s (%s)\n", s.Kind, s.Name, s.File)
		}
	}

	if len(a.FileChanges) > 0 {
		sb.WriteString("  - Files by importance:\n")
		for _, f := range a.FileChanges {
			fmt.Fprintf(&sb, "    - [%s] %s %s +%d/-%d\n", f.Importance, f.ChangeType, f.Path, f.LinesAdded, f.LinesRemoved)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// FormatASTForPrompt lists syntax-tree findings; empty when there are none.
func FormatASTForPrompt(analyses []models.ASTAnalysis) string {
	var sb strings.Builder
	for _, a := range analyses {
		for _, r := range a.Refactorings {
			fmt.Fprintf(&sb, "  - %s: %s -> %s in %s (confidence %.2f)\n", r.Kind, r.From, r.To, r.File, r.Confidence)
		}
		for _, c := range a.StructuralChanges {
			visibility := "internal"
			if c.IsPublicAPI {
				visibility = "public"
			}
			fmt.Fprintf(&sb, "  - %s %s %s %s in %s\n", c.Kind, visibility, c.NodeKind, c.Name, c.File)
		}
		for _, i := range a.SemanticImpacts {
			fmt.Fprintf(&sb, "  - impact %s (%s) in %s: %s\n", i.Kind, i.Severity, i.File, i.Description)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatVerificationForPrompt turns a verification result into refinement feedback.
func FormatVerificationForPrompt(v models.VerificationResult) string {
	lines := []string{fmt.Sprintf("factual accuracy %d/100", v.FactualAccuracy)}
	if v.HasCriticalIssues {
		lines = append(lines, "critical issues present")
	}
	lines = append(lines, v.Issues...)
	if len(v.HallucinatedSymbols) > 0 {
		lines = append(lines, "remove mentions of: "+strings.Join(v.HallucinatedSymbols, ", "))
	}
	if len(v.MissingSymbols) > 0 {
		lines = append(lines, "consider mentioning: "+strings.Join(v.MissingSymbols, ", "))
	}
	lines = append(lines, v.Recommendations...)
	return FormatList(lines)
}

// FormatCriteriaScores renders criteria in a stable order.
func FormatCriteriaScores(scores map[string]int) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, scores[name]))
	}
	return strings.Join(parts, ", ")
}
