package analyzer

import (
	"regexp"

	"github.com/thomas-vilte/commitlens/internal/models"
)

// SymbolMatcher recognizes one declaration form on a single added line.
// The identifier is captured by the named group "name".
type SymbolMatcher struct {
	Name    string
	Kind    models.SymbolKind
	Pattern *regexp.Regexp
}

// Match returns the declared identifier when the line matches.
func (m SymbolMatcher) Match(line string) (string, bool) {
	sub := m.Pattern.FindStringSubmatch(line)
	if sub == nil {
		return "", false
	}
	idx := m.Pattern.SubexpIndex("name")
	if idx < 0 || sub[idx] == "" {
		return "", false
	}
	if reservedWords[sub[idx]] {
		return "", false
	}
	return sub[idx], true
}

var reservedWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "new": true, "else": true, "constructor": true,
	"super": true, "this": true, "await": true, "typeof": true,
}

const (
	jsIdent = `[A-Za-z_$][\w$]*`
	ident   = `[A-Za-z_]\w*`
	rustPub = `(?:pub(?:\([^)]*\))?\s+)?`
)

// DefaultSymbolMatchers is tried in order and the first match wins:
// functions, then classes and structs, then interfaces and type aliases,
// then exported upper-snake-case constants.
var DefaultSymbolMatchers = []SymbolMatcher{
	// functions
	{
		Name:    "js-function",
		Kind:    models.SymbolFunction,
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(?P<name>` + jsIdent + `)\s*[<(]`),
	},
	{
		Name: "js-arrow-function",
		Kind: models.SymbolFunction,
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(?P<name>` + jsIdent + `)\s*(?::[^=]+)?=\s*(?:async\s+)?` +
			`(?:function\b|(?:\([^)]*\)|` + jsIdent + `)\s*(?::\s*[^=]+?)?\s*=>)`),
	},
	{
		Name:    "go-method",
		Kind:    models.SymbolMethod,
		Pattern: regexp.MustCompile(`^\s*func\s+\([^)]*\)\s*(?P<name>` + ident + `)\s*[\[(]`),
	},
	{
		Name:    "go-func",
		Kind:    models.SymbolFunction,
		Pattern: regexp.MustCompile(`^\s*func\s+(?P<name>` + ident + `)\s*[\[(]`),
	},
	{
		Name:    "python-def",
		Kind:    models.SymbolFunction,
		Pattern: regexp.MustCompile(`^\s*(?:async\s+)?def\s+(?P<name>` + ident + `)\s*\(`),
	},
	{
		Name:    "rust-fn",
		Kind:    models.SymbolFunction,
		Pattern: regexp.MustCompile(`^\s*` + rustPub + `(?:async\s+)?(?:unsafe\s+)?fn\s+(?P<name>` + ident + `)`),
	},
	{
		Name: "class-method",
		Kind: models.SymbolMethod,
		Pattern: regexp.MustCompile(`^\s+(?:(?:public|private|protected|static|async|override|readonly)\s+)+(?P<name>` + jsIdent +
			`)\s*(?:<[^>]*>)?\s*\([^)]*\)\s*(?::\s*[^{]+)?\{?\s*$`),
	},

	// classes and structs
	{
		Name:    "class",
		Kind:    models.SymbolClass,
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?(?:data\s+)?class\s+(?P<name>` + jsIdent + `)`),
	},
	{
		Name:    "go-struct",
		Kind:    models.SymbolClass,
		Pattern: regexp.MustCompile(`^\s*(?:type\s+)?(?P<name>` + ident + `)\s+struct\s*\{`),
	},
	{
		Name:    "rust-struct",
		Kind:    models.SymbolClass,
		Pattern: regexp.MustCompile(`^\s*` + rustPub + `struct\s+(?P<name>` + ident + `)`),
	},

	// interfaces and type aliases
	{
		Name:    "ts-interface",
		Kind:    models.SymbolInterface,
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?interface\s+(?P<name>` + jsIdent + `)`),
	},
	{
		Name:    "go-interface",
		Kind:    models.SymbolInterface,
		Pattern: regexp.MustCompile(`^\s*(?:type\s+)?(?P<name>` + ident + `)\s+interface\s*\{`),
	},
	{
		Name:    "rust-trait",
		Kind:    models.SymbolInterface,
		Pattern: regexp.MustCompile(`^\s*` + rustPub + `trait\s+(?P<name>` + ident + `)`),
	},
	{
		Name:    "type-alias",
		Kind:    models.SymbolType,
		Pattern: regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?type\s+(?P<name>` + jsIdent + `)\s*(?:<[^>]*>|\[[^\]]*\])?\s*=`),
	},
	{
		Name:    "go-type",
		Kind:    models.SymbolType,
		Pattern: regexp.MustCompile(`^\s*type\s+(?P<name>` + ident + `)\s+[\w*\[\]]`),
	},

	// constants
	{
		Name:    "js-export-const",
		Kind:    models.SymbolConst,
		Pattern: regexp.MustCompile(`^\s*export\s+const\s+(?P<name>[A-Z][A-Z0-9_]*)\s*(?::[^=]+)?=`),
	},
	{
		Name:    "go-const",
		Kind:    models.SymbolConst,
		Pattern: regexp.MustCompile(`^\s*const\s+(?P<name>[A-Z][A-Z0-9_]*)\b`),
	},
	{
		Name:    "python-const",
		Kind:    models.SymbolConst,
		Pattern: regexp.MustCompile(`^(?P<name>[A-Z][A-Z0-9_]*)\s*(?::\s*[\w\[\], ]+)?=[^=]`),
	},
}

type symbolKey struct {
	file string
	name string
	kind models.SymbolKind
}

// extractSymbols runs the matchers over the added lines of one file.
// seen deduplicates across lines and files.
func extractSymbols(matchers []SymbolMatcher, file string, added []string, seen map[symbolKey]bool) []models.ModifiedSymbol {
	var out []models.ModifiedSymbol
	for _, line := range added {
		for _, m := range matchers {
			name, ok := m.Match(line)
			if !ok {
				continue
			}
			key := symbolKey{file: file, name: name, kind: m.Kind}
			if !seen[key] {
				seen[key] = true
				out = append(out, models.ModifiedSymbol{File: file, Name: name, Kind: m.Kind})
			}
			break
		}
	}
	return out
}
