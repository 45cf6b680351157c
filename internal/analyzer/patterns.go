package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/thomas-vilte/commitlens/internal/models"
)

var (
	testDeclRe      = regexp.MustCompile(`^\s*(?:func\s+Test\w*|(?:it|test|describe)\s*\(|(?:async\s+)?def\s+test_\w*|@Test\b|#\[test\])`)
	bugFixRe        = regexp.MustCompile(`(?i)\b(?:fix(?:e[sd])?|bug|issue|patch|resolve[sd]?|workaround|hotfix|regression|null\s*check|nil\s*check)\b`)
	errorHandlingRe = regexp.MustCompile(`(?i)(?:\btry\b|\bcatch\b|\bexcept\b|\bthrow\b|\braise\b|if\s+err\s*!=\s*nil|errors\.(?:New|Is|As|Wrap)|fmt\.Errorf|\.catch\(|\bfinally\b|\bpanic\(|\brecover\(\))`)
	performanceRe   = regexp.MustCompile(`(?i)\b(?:cache[ds]?|caching|memoi[sz]e\w*|optimi[sz]e\w*|performance|perf|lazy|debounce|throttle|pool(?:ing)?|batch(?:ing)?|concurren\w*|parallel\w*|goroutine|preallocat\w*|benchmark\w*|fast(?:er)?|speed\s*up|latency)\b`)
)

const (
	movedPairMinLen  = 20
	movedPairRatio   = 0.8
	movedPairsNeeded = 3
)

// patternInput is the per-analysis view shared by every heuristic.
type patternInput struct {
	files   []*fileEntry
	symbols []models.ModifiedSymbol
}

type fileEntry struct {
	diff  *fileDiff
	class fileClass
}

func (in patternInput) count(class fileClass) int {
	n := 0
	for _, f := range in.files {
		if f.class == class {
			n++
		}
	}
	return n
}

func (in patternInput) codeTouched() bool {
	return in.count(classSource) > 0 || in.count(classOther) > 0
}

// nonTestChangedLines returns added and removed lines of files that are not tests.
func (in patternInput) nonTestChangedLines() []string {
	var lines []string
	for _, f := range in.files {
		if f.class == classTest {
			continue
		}
		lines = append(lines, f.diff.added...)
		lines = append(lines, f.diff.removed...)
	}
	return lines
}

func (in patternInput) nonTestAddedLines() []string {
	var lines []string
	for _, f := range in.files {
		if f.class != classTest {
			lines = append(lines, f.diff.added...)
		}
	}
	return lines
}

type patternDetector func(in patternInput) (models.ChangePattern, bool)

var patternDetectors = []patternDetector{
	detectTestChanges(models.PatternTestAddition),
	detectTestChanges(models.PatternTestModification),
	detectKeywordDensity(models.PatternBugFix, bugFixRe, patternInput.nonTestChangedLines, "bug fix indicator(s)"),
	detectKeywordDensity(models.PatternErrorHandling, errorHandlingRe, patternInput.nonTestAddedLines, "error handling construct(s)"),
	detectFileClass(models.PatternDocumentation, classDoc, 0.9, 0.5, "documentation file(s) changed"),
	detectFileClass(models.PatternConfiguration, classConfig, 0.85, 0.5, "configuration file(s) changed"),
	detectFileClass(models.PatternDependencyUpdate, classDependency, 0.9, 0.6, "dependency manifest(s) changed"),
	detectTypeDefinitions,
	detectCodeMovement,
	detectKeywordDensity(models.PatternPerformance, performanceRe, patternInput.nonTestAddedLines, "performance-related change(s)"),
	detectFeatureAddition,
}

// detectPatterns runs every heuristic independently and sorts the hits by
// confidence, highest first.
func detectPatterns(in patternInput) []models.ChangePattern {
	patterns := make([]models.ChangePattern, 0, len(patternDetectors))
	for _, detect := range patternDetectors {
		if p, ok := detect(in); ok {
			p.Confidence = round2(clamp01(p.Confidence))
			patterns = append(patterns, p)
		}
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})
	return patterns
}

func detectTestChanges(kind models.ChangePatternKind) patternDetector {
	return func(in patternInput) (models.ChangePattern, bool) {
		testFiles := in.count(classTest)
		if testFiles == 0 {
			return models.ChangePattern{}, false
		}

		var added, newFiles, modifiedFiles int
		for _, f := range in.files {
			if f.class != classTest {
				continue
			}
			if f.diff.isNew {
				newFiles++
			} else if len(f.diff.added)+len(f.diff.removed) > 0 {
				modifiedFiles++
			}
			for _, line := range f.diff.added {
				if testDeclRe.MatchString(line) {
					added++
				}
			}
		}

		var p models.ChangePattern
		switch kind {
		case models.PatternTestAddition:
			if added == 0 && newFiles == 0 {
				return p, false
			}
			occurrences := added
			if occurrences == 0 {
				occurrences = newFiles
			}
			p = models.ChangePattern{
				Kind:        kind,
				Description: fmt.Sprintf("%d test case(s) added across %d test file(s)", occurrences, testFiles),
				Occurrences: occurrences,
				Confidence:  0.9,
			}
		case models.PatternTestModification:
			if modifiedFiles == 0 {
				return p, false
			}
			p = models.ChangePattern{
				Kind:        kind,
				Description: fmt.Sprintf("%d existing test file(s) modified", modifiedFiles),
				Occurrences: modifiedFiles,
				Confidence:  0.75,
			}
		default:
			return p, false
		}

		// Tests that only support a larger source change are secondary.
		if in.count(classSource) > testFiles {
			p.Confidence /= 2
		}
		return p, true
	}
}

func detectKeywordDensity(kind models.ChangePatternKind, re *regexp.Regexp, lines func(patternInput) []string, label string) patternDetector {
	return func(in patternInput) (models.ChangePattern, bool) {
		all := lines(in)
		if len(all) == 0 {
			return models.ChangePattern{}, false
		}
		hits := 0
		for _, line := range all {
			if re.MatchString(line) {
				hits++
			}
		}
		if hits == 0 {
			return models.ChangePattern{}, false
		}
		density := float64(hits) / float64(len(all))
		return models.ChangePattern{
			Kind:        kind,
			Description: fmt.Sprintf("%d %s", hits, label),
			Occurrences: hits,
			Confidence:  math.Min(0.9, 0.3+density*2),
		}, true
	}
}

func detectFileClass(kind models.ChangePatternKind, class fileClass, alone, withCode float64, label string) patternDetector {
	return func(in patternInput) (models.ChangePattern, bool) {
		n := in.count(class)
		if n == 0 {
			return models.ChangePattern{}, false
		}
		confidence := alone
		if in.codeTouched() {
			confidence = withCode
		}
		return models.ChangePattern{
			Kind:        kind,
			Description: fmt.Sprintf("%d %s", n, label),
			Occurrences: n,
			Confidence:  confidence,
		}, true
	}
}

func detectTypeDefinitions(in patternInput) (models.ChangePattern, bool) {
	if len(in.symbols) == 0 {
		return models.ChangePattern{}, false
	}
	n := 0
	for _, s := range in.symbols {
		if s.Kind == models.SymbolInterface || s.Kind == models.SymbolType {
			n++
		}
	}
	if n == 0 {
		return models.ChangePattern{}, false
	}
	density := float64(n) / float64(len(in.symbols))
	return models.ChangePattern{
		Kind:        models.PatternTypeDefinition,
		Description: fmt.Sprintf("%d interface or type declaration(s)", n),
		Occurrences: n,
		Confidence:  0.4 + density*0.5,
	}, true
}

// detectCodeMovement pairs removed and added lines of the same change block
// by position and counts the pairs that are mostly the same text.
func detectCodeMovement(in patternInput) (models.ChangePattern, bool) {
	moved := 0
	for _, f := range in.files {
		for _, b := range f.diff.blocks {
			n := min(len(b.removed), len(b.added))
			for i := 0; i < n; i++ {
				if isMovedPair(b.removed[i], b.added[i]) {
					moved++
				}
			}
		}
	}
	if moved <= movedPairsNeeded {
		return models.ChangePattern{}, false
	}
	return models.ChangePattern{
		Kind:        models.PatternRefactoring,
		Description: fmt.Sprintf("%d line(s) moved or lightly rewritten", moved),
		Occurrences: moved,
		Confidence:  math.Min(0.9, 0.5+float64(moved)*0.05),
	}, true
}

func isMovedPair(removed, added string) bool {
	a, b := strings.TrimSpace(removed), strings.TrimSpace(added)
	longer := max(len(a), len(b))
	if longer <= movedPairMinLen {
		return false
	}
	return overlapRatio(a, b) > movedPairRatio
}

// overlapRatio counts characters equal at the same position, over the longer length.
func overlapRatio(a, b string) float64 {
	longer := max(len(a), len(b))
	if longer == 0 {
		return 0
	}
	same := 0
	for i := 0; i < min(len(a), len(b)); i++ {
		if a[i] == b[i] {
			same++
		}
	}
	return float64(same) / float64(longer)
}

func detectFeatureAddition(in patternInput) (models.ChangePattern, bool) {
	var confidence float64
	var reasons []string

	newClasses := 0
	for _, s := range in.symbols {
		if s.Kind == models.SymbolClass {
			newClasses++
		}
	}
	if newClasses > 0 {
		confidence += 0.35
		reasons = append(reasons, fmt.Sprintf("%d new class(es)", newClasses))
	}

	newFiles, added, removed := 0, 0, 0
	for _, f := range in.files {
		if f.class != classSource && f.class != classOther {
			continue
		}
		a, r := len(f.diff.added), len(f.diff.removed)
		added += a
		removed += r
		if f.diff.isNew && a >= 10 && r < 5 {
			newFiles++
		}
	}
	if newFiles > 0 {
		confidence += 0.35
		reasons = append(reasons, fmt.Sprintf("%d new file(s)", newFiles))
	}
	if added > 0 && float64(added) > 1.5*float64(removed) {
		confidence += 0.2
		reasons = append(reasons, "mostly additions")
	}
	if len(reasons) == 0 {
		return models.ChangePattern{}, false
	}
	confidence = math.Min(0.95, confidence+0.1)

	return models.ChangePattern{
		Kind:        models.PatternFeatureAddition,
		Description: "new functionality: " + strings.Join(reasons, ", "),
		Occurrences: max(1, newClasses+newFiles),
		Confidence:  confidence,
	}, true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
