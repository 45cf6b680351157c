package git

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fileDiff(path string, lines int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "diff --git a/%s b/%s\nindex 111..222 100644\n--- a/%s\n+++ b/%s\n@@ -1,%d +1,%d @@\n", path, path, path, path, lines, lines)
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&sb, "+line %03d of %s\n", i, path)
	}
	return sb.String()
}

func TestTruncateDiff(t *testing.T) {
	t.Run("under the limit", func(t *testing.T) {
		diff := fileDiff("a.go", 3)

		out, info := TruncateDiff(diff, 10_000)

		assert.Equal(t, diff, out)
		assert.False(t, info.Truncated)
		assert.Equal(t, len(diff), info.OriginalBytes)
	})

	t.Run("disabled", func(t *testing.T) {
		diff := fileDiff("a.go", 100)
		out, info := TruncateDiff(diff, 0)
		assert.Equal(t, diff, out)
		assert.False(t, info.Truncated)
	})

	t.Run("keeps every file header", func(t *testing.T) {
		diff := fileDiff("big.go", 400) + fileDiff("small.go", 20) + fileDiff("docs/readme.md", 5)

		out, info := TruncateDiff(diff, 2_000)

		assert.True(t, info.Truncated)
		assert.Equal(t, len(diff), info.OriginalBytes)
		assert.Equal(t, len(out), info.FinalBytes)
		assert.Less(t, info.FinalBytes, info.OriginalBytes)
		for _, path := range []string{"big.go", "small.go", "docs/readme.md"} {
			assert.Contains(t, out, "diff --git a/"+path+" b/"+path)
		}
		assert.Contains(t, info.FilesTruncated, "big.go")
		assert.Contains(t, out, "[truncated ")
	})

	t.Run("cuts on line boundaries", func(t *testing.T) {
		diff := fileDiff("a.go", 200)

		out, _ := TruncateDiff(diff, 1_000)

		for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
			if strings.HasPrefix(line, "+line") {
				assert.Regexp(t, `^\+line \d{3} of a\.go$`, line)
			}
		}
	})

	t.Run("budget smaller than headers", func(t *testing.T) {
		diff := fileDiff("a.go", 50) + fileDiff("b.go", 50)

		out, info := TruncateDiff(diff, 10)

		assert.Contains(t, out, "diff --git a/a.go b/a.go")
		assert.Contains(t, out, "diff --git a/b.go b/b.go")
		assert.NotContains(t, out, "+line")
		assert.ElementsMatch(t, []string{"a.go", "b.go"}, info.FilesTruncated)
	})
}
