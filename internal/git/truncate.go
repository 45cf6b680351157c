package git

import (
	"fmt"
	"strings"

	"github.com/thomas-vilte/commitlens/internal/models"
)

const truncationMarker = "... [truncated %d bytes]\n"

type diffSection struct {
	path   string
	header string
	hunks  string
}

// TruncateDiff shrinks diff to roughly maxBytes. Every file header is kept and
// each file's hunks are cut in proportion to their size, so no file disappears
// from the diff. maxBytes <= 0 disables truncation.
func TruncateDiff(diff string, maxBytes int) (string, models.TruncationInfo) {
	info := models.TruncationInfo{OriginalBytes: len(diff), FinalBytes: len(diff)}
	if maxBytes <= 0 || len(diff) <= maxBytes {
		return diff, info
	}

	sections := splitSections(diff)
	headerBytes, hunkBytes := 0, 0
	for _, sec := range sections {
		headerBytes += len(sec.header)
		hunkBytes += len(sec.hunks)
	}
	budget := max(maxBytes-headerBytes, 0)

	var sb strings.Builder
	for _, sec := range sections {
		sb.WriteString(sec.header)
		if sec.hunks == "" {
			continue
		}

		share := 0
		if hunkBytes > 0 {
			share = int(int64(len(sec.hunks)) * int64(budget) / int64(hunkBytes))
		}
		if share >= len(sec.hunks) {
			sb.WriteString(sec.hunks)
			continue
		}

		kept := cutAtLine(sec.hunks, share)
		sb.WriteString(kept)
		sb.WriteString(fmt.Sprintf(truncationMarker, len(sec.hunks)-len(kept)))
		info.FilesTruncated = append(info.FilesTruncated, sec.path)
	}

	out := sb.String()
	info.Truncated = true
	info.FinalBytes = len(out)
	return out, info
}

// splitSections splits a unified diff at "diff --git" markers. Anything before
// the first marker is kept as a header-only section.
func splitSections(diff string) []diffSection {
	var sections []diffSection
	var current *diffSection
	inHunks := false

	flush := func() {
		if current != nil {
			sections = append(sections, *current)
		}
	}

	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "diff --git ") {
			flush()
			current = &diffSection{path: pathFromDiffLine(line)}
			inHunks = false
		}
		if current == nil {
			current = &diffSection{}
		}
		if strings.HasPrefix(line, "@@") {
			inHunks = true
		}
		if inHunks {
			current.hunks += line
		} else {
			current.header += line
		}
	}
	flush()
	return sections
}

func pathFromDiffLine(line string) string {
	line = strings.TrimSpace(strings.TrimPrefix(line, "diff --git "))
	if i := strings.LastIndex(line, " b/"); i >= 0 {
		return line[i+3:]
	}
	return line
}

// cutAtLine returns the longest prefix of s no longer than n that ends on a
// line boundary.
func cutAtLine(s string, n int) string {
	if n <= 0 {
		return ""
	}
	prefix := s[:n]
	if i := strings.LastIndex(prefix, "\n"); i >= 0 {
		return prefix[:i+1]
	}
	return ""
}
