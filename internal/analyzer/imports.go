package analyzer

import (
	"path"
	"regexp"
	"strings"

	"github.com/thomas-vilte/commitlens/internal/models"
)

var (
	jsImportRe  = regexp.MustCompile(`^\s*import\s+(?:type\s+)?(?:[\w*{}\s,$]+\s+from\s+)?['"](?P<mod>[^'"]+)['"]`)
	jsExportRe  = regexp.MustCompile(`^\s*export\s+(?:\*|\{[^}]*\})\s+from\s+['"](?P<mod>[^'"]+)['"]`)
	requireRe   = regexp.MustCompile(`require\(\s*['"](?P<mod>[^'"]+)['"]\s*\)`)
	pyFromRe    = regexp.MustCompile(`^\s*from\s+(?P<mod>[\w.]+)\s+import\b`)
	pyImportRe  = regexp.MustCompile(`^\s*import\s+(?P<mod>[\w.]+)\s*$`)
	goImportRe  = regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"(?P<mod>[^"]+)"`)
	goSpecRe    = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"(?P<mod>[\w./-]+)"\s*$`)
	rustUseRe   = regexp.MustCompile(`^\s*(?:pub\s+)?use\s+(?P<mod>[\w:]+)`)
	importRules = map[string][]*regexp.Regexp{
		".js":  {jsImportRe, jsExportRe, requireRe},
		".jsx": {jsImportRe, jsExportRe, requireRe},
		".mjs": {jsImportRe, jsExportRe, requireRe},
		".cjs": {requireRe},
		".ts":  {jsImportRe, jsExportRe, requireRe},
		".tsx": {jsImportRe, jsExportRe, requireRe},
		".py":  {pyFromRe, pyImportRe},
		".go":  {goImportRe, goSpecRe},
		".rs":  {rustUseRe},
	}
)

// extractImports finds import statements on added lines. Go import blocks
// are recognized by their bare quoted specs, since the surrounding
// "import (" line is usually context.
func extractImports(file string, added []string) []models.FileRelationship {
	rules := importRules[strings.ToLower(path.Ext(file))]
	if len(rules) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []models.FileRelationship
	for _, line := range added {
		for _, re := range rules {
			sub := re.FindStringSubmatch(line)
			if sub == nil {
				continue
			}
			mod := sub[re.SubexpIndex("mod")]
			if mod == "" || seen[mod] {
				break
			}
			seen[mod] = true
			out = append(out, models.FileRelationship{From: file, To: mod, Kind: models.RelationshipImport})
			break
		}
	}
	return out
}
