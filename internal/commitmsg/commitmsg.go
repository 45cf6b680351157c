// Package commitmsg maps between models.CommitMessage and the conventional
// commit text format.
package commitmsg

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/models"
	"github.com/thomas-vilte/commitlens/internal/regex"
)

const fallbackType = "chore"

var knownTypes = []string{
	"feat", "fix", "refactor", "docs", "test", "chore",
	"perf", "style", "build", "ci", "revert",
}

var typeAliases = map[string]string{
	"feature":     "feat",
	"features":    "feat",
	"bugfix":      "fix",
	"hotfix":      "fix",
	"doc":         "docs",
	"tests":       "test",
	"performance": "perf",
	"refactoring": "refactor",
}

// KnownTypes returns the accepted commit types.
func KnownTypes() []string {
	return slices.Clone(knownTypes)
}

func IsKnownType(t string) bool {
	return slices.Contains(knownTypes, t)
}

// Header renders "type(scope)!: subject".
func Header(m models.CommitMessage) string {
	var sb strings.Builder
	sb.WriteString(m.Type)
	if m.Scope != "" {
		sb.WriteString("(" + m.Scope + ")")
	}
	if m.Breaking {
		sb.WriteString("!")
	}
	sb.WriteString(": ")
	sb.WriteString(m.Subject)
	return sb.String()
}

// Format renders the full commit message. Breaking changes always carry a
// BREAKING CHANGE footer.
func Format(m models.CommitMessage) string {
	parts := []string{Header(m)}

	if body := strings.TrimSpace(m.Body); body != "" {
		parts = append(parts, body)
	}

	footer := strings.TrimSpace(m.Footer)
	if m.Breaking && !regex.BreakingChange.MatchString(footer) {
		breaking := "BREAKING CHANGE: " + m.Subject
		if footer == "" {
			footer = breaking
		} else {
			footer = breaking + "\n" + footer
		}
	}
	if footer != "" {
		parts = append(parts, footer)
	}

	return strings.Join(parts, "\n\n")
}

// Parse reads a conventional commit. The header must match
// "type(scope)!: subject"; the last paragraph is a footer when every line of
// it is a git trailer.
func Parse(text string) (models.CommitMessage, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return models.CommitMessage{}, errors.ErrInvalidAIOutput.WithContext("reason", "empty commit message")
	}

	header, rest, _ := strings.Cut(text, "\n")
	match := regex.ConventionalHeader.FindStringSubmatch(strings.TrimSpace(header))
	if match == nil {
		return models.CommitMessage{}, errors.ErrInvalidAIOutput.
			WithError(fmt.Errorf("header %q is not a conventional commit", header))
	}

	msg := models.CommitMessage{
		Type:     strings.ToLower(match[regex.ConventionalHeader.SubexpIndex("type")]),
		Scope:    strings.TrimSpace(match[regex.ConventionalHeader.SubexpIndex("scope")]),
		Subject:  strings.TrimSpace(match[regex.ConventionalHeader.SubexpIndex("subject")]),
		Breaking: match[regex.ConventionalHeader.SubexpIndex("bang")] != "",
	}

	paragraphs := splitParagraphs(rest)
	if n := len(paragraphs); n > 0 && isFooter(paragraphs[n-1]) {
		msg.Footer = paragraphs[n-1]
		paragraphs = paragraphs[:n-1]
	}
	msg.Body = strings.Join(paragraphs, "\n\n")

	if regex.BreakingChange.MatchString(msg.Footer) {
		msg.Breaking = true
	}

	return msg, nil
}

// Normalize canonicalizes the type, scope and subject and keeps the header
// within maxLength characters. A maxLength of zero disables truncation.
func Normalize(m models.CommitMessage, maxLength int) models.CommitMessage {
	m.Type = normalizeType(m.Type)
	m.Scope = normalizeScope(m.Scope)
	m.Subject = normalizeSubject(m.Subject)
	m.Body = strings.TrimSpace(m.Body)
	m.Footer = strings.TrimSpace(m.Footer)

	if maxLength > 0 {
		prefix := utf8.RuneCountInString(Header(models.CommitMessage{Type: m.Type, Scope: m.Scope, Breaking: m.Breaking}))
		m.Subject = truncateWords(m.Subject, maxLength-prefix)
	}
	return m
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if alias, ok := typeAliases[t]; ok {
		return alias
	}
	if IsKnownType(t) {
		return t
	}
	return fallbackType
}

func normalizeScope(scope string) string {
	scope = strings.ToLower(strings.TrimSpace(scope))
	return strings.Join(strings.Fields(scope), "-")
}

func normalizeSubject(subject string) string {
	subject = strings.Join(strings.Fields(subject), " ")
	subject = strings.TrimRight(subject, ".")

	first, size := utf8.DecodeRuneInString(subject)
	if first == utf8.RuneError {
		return subject
	}
	// Keep acronyms such as "API" or "CLI".
	if next, _ := utf8.DecodeRuneInString(subject[size:]); unicode.IsUpper(next) {
		return subject
	}
	return string(unicode.ToLower(first)) + subject[size:]
}

func truncateWords(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-")
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func isFooter(paragraph string) bool {
	for _, line := range strings.Split(paragraph, "\n") {
		if !regex.FooterToken.MatchString(strings.TrimSpace(line)) {
			return false
		}
	}
	return true
}
