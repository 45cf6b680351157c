package ai

import (
	"encoding/json"
	"strings"

	"github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/regex"
)

// ParseResult is either Parsed (the model output decoded into Value) or a
// fallback, in which case Value holds the caller's default and Err says why.
type ParseResult[T any] struct {
	Value  T
	Parsed bool
	Err    error
}

// ParseLenient decodes untrusted model output into T. It never fails: when no
// JSON can be recovered the fallback is returned with Parsed=false.
func ParseLenient[T any](text string, fallback T) ParseResult[T] {
	if strings.TrimSpace(text) == "" {
		return ParseResult[T]{Value: fallback, Err: errors.ErrInvalidAIOutput.WithContext("reason", "empty response")}
	}

	raw := ExtractJSON(text)
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return ParseResult[T]{Value: fallback, Err: errors.ErrInvalidAIOutput.WithError(err)}
	}
	return ParseResult[T]{Value: value, Parsed: true}
}

// ExtractJSON attempts to extract a valid JSON block from text, handling
// markdown code fences and the extra prose some models add around them.
// The largest valid candidate wins.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	var bestFenced string
	for _, m := range regex.MarkdownJSONBlock.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			continue
		}
		sanitized := SanitizeJSON(strings.TrimSpace(m[1]))
		if json.Valid([]byte(sanitized)) && len(sanitized) > len(bestFenced) {
			bestFenced = sanitized
		}
	}
	if bestFenced != "" {
		return bestFenced
	}

	var bestBlock string
	for i := 0; i < len(text); {
		start := strings.IndexAny(text[i:], "{[")
		if start == -1 {
			break
		}
		start += i

		end := matchingClose(text, start)
		if end == -1 {
			i = start + 1
			continue
		}

		sanitized := SanitizeJSON(text[start : end+1])
		if json.Valid([]byte(sanitized)) && len(sanitized) > len(bestBlock) {
			bestBlock = sanitized
		}
		i = end + 1
	}
	if bestBlock != "" {
		return bestBlock
	}

	return SanitizeJSON(text)
}

// matchingClose returns the index closing the bracket opened at start, or -1.
func matchingClose(text string, start int) int {
	opener := text[start]
	closer := byte('}')
	if opener == '[' {
		closer = ']'
	}

	depth := 0
	inString, escaped := false, false
	for j := start; j < len(text); j++ {
		c := text[j]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == opener:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// SanitizeJSON repairs the malformations models commonly produce: raw
// newlines and tabs inside string literals and trailing commas.
func SanitizeJSON(s string) string {
	s = regex.JSONString.ReplaceAllStringFunc(s, func(m string) string {
		m = strings.ReplaceAll(m, "\r", "")
		m = strings.ReplaceAll(m, "\n", "\\n")
		return strings.ReplaceAll(m, "\t", "\\t")
	})
	if json.Valid([]byte(s)) {
		return s
	}
	if fixed := regex.TrailingComma.ReplaceAllString(s, "$1"); json.Valid([]byte(fixed)) {
		return fixed
	}
	return s
}
