package regex

import "regexp"

var (
	// Conventional commits
	ConventionalHeader = regexp.MustCompile(`^(?P<type>[a-zA-Z]+)(?:\((?P<scope>[^)]*)\))?(?P<bang>!)?:\s*(?P<subject>.+)$`)
	BreakingChange     = regexp.MustCompile(`(?m)^BREAKING[ -]CHANGE:\s*(.+)`)
	FooterToken        = regexp.MustCompile(`^(?:BREAKING[ -]CHANGE|[A-Za-z][\w-]*)(?::\s| #)`)

	// AI and JSON parsing
	MarkdownJSONBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\n?(.*?)```")
	JSONString        = regexp.MustCompile(`"(?:\\.|[^"\\])*"`)
	TrailingComma     = regexp.MustCompile(`,\s*([}\]])`)
)
