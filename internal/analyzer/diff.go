package analyzer

import "strings"

// fileDiff is the per-file slice of a unified diff.
type fileDiff struct {
	path      string
	isNew     bool
	isDeleted bool
	added     []string
	removed   []string
	blocks    []changeBlock
}

// changeBlock is a run of removed lines immediately followed by a run of added lines.
type changeBlock struct {
	removed []string
	added   []string
}

// parseUnifiedDiff walks the diff line by line. A file starts at every
// "diff --git a/X b/Y" marker; header lines before the first hunk are only
// used to detect creation, deletion and renames.
func parseUnifiedDiff(diff string) []*fileDiff {
	var (
		files  []*fileDiff
		cur    *fileDiff
		block  *changeBlock
		inHunk bool
	)

	flush := func() {
		if cur != nil && block != nil && len(block.removed) > 0 && len(block.added) > 0 {
			cur.blocks = append(cur.blocks, *block)
		}
		block = nil
	}

	for _, line := range strings.Split(diff, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if strings.HasPrefix(line, "diff --git ") {
			flush()
			cur = &fileDiff{path: parseGitPath(line)}
			files = append(files, cur)
			inHunk = false
			continue
		}
		if cur == nil {
			continue
		}

		if !inHunk {
			switch {
			case strings.HasPrefix(line, "new file mode"), line == "--- /dev/null":
				cur.isNew = true
			case strings.HasPrefix(line, "deleted file mode"), line == "+++ /dev/null":
				cur.isDeleted = true
			case strings.HasPrefix(line, "rename to "):
				cur.path = strings.TrimSpace(strings.TrimPrefix(line, "rename to "))
			case strings.HasPrefix(line, "@@"):
				inHunk = true
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "@@"):
			flush()
		case strings.HasPrefix(line, "+"):
			text := line[1:]
			cur.added = append(cur.added, text)
			if block == nil {
				block = &changeBlock{}
			}
			block.added = append(block.added, text)
		case strings.HasPrefix(line, "-"):
			text := line[1:]
			cur.removed = append(cur.removed, text)
			if block == nil || len(block.added) > 0 {
				flush()
				block = &changeBlock{}
			}
			block.removed = append(block.removed, text)
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file"
		default:
			flush()
		}
	}
	flush()

	return files
}

// parseGitPath returns the post-image path of a "diff --git a/X b/Y" line.
func parseGitPath(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	rest = strings.ReplaceAll(rest, `"`, "")
	if idx := strings.LastIndex(rest, " b/"); idx >= 0 {
		return strings.TrimSpace(rest[idx+3:])
	}
	parts := strings.Fields(rest)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimPrefix(parts[1], "b/")
}
