package astdiff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thomas-vilte/commitlens/internal/models"
)

const (
	renameMinSimilarity = 0.9
	// Declarations whose bodies are at least this similar count as unchanged.
	modifiedMaxSimilarity = 0.95

	functionRenameConfidence = 0.95
	methodRenameConfidence   = 0.9
	classRenameConfidence    = 0.85
	extractMethodConfidence  = 0.7
	inlineFunctionConfidence = 0.6
)

type declPair struct {
	before decl
	after  decl
}

type declIndex struct {
	order  []string
	byName map[string]decl
}

func index(decls []decl) declIndex {
	idx := declIndex{byName: make(map[string]decl, len(decls))}
	for _, d := range decls {
		if _, dup := idx.byName[d.qualified]; dup {
			continue
		}
		idx.byName[d.qualified] = d
		idx.order = append(idx.order, d.qualified)
	}
	return idx
}

func compare(path string, oldFile, newFile *sourceFile, result *models.ASTAnalysis) {
	oldIdx, newIdx := index(oldFile.decls), index(newFile.decls)

	var removed, added []decl
	var modified []declPair

	for _, q := range oldIdx.order {
		o := oldIdx.byName[q]
		n, ok := newIdx.byName[q]
		switch {
		case !ok:
			removed = append(removed, o)
		case similarity(o.body, n.body, modifiedMaxSimilarity) < modifiedMaxSimilarity:
			modified = append(modified, declPair{o, n})
		}
	}
	for _, q := range newIdx.order {
		if _, ok := oldIdx.byName[q]; !ok {
			added = append(added, newIdx.byName[q])
		}
	}

	result.Refactorings = append(result.Refactorings, detectRenames(path, removed, added)...)
	for _, p := range modified {
		result.Refactorings = append(result.Refactorings, detectExtractInline(path, p.before, p.after, removed, added)...)
	}

	for _, d := range added {
		result.StructuralChanges = append(result.StructuralChanges, structural(path, models.StructuralAdded, d))
	}
	for _, p := range modified {
		result.StructuralChanges = append(result.StructuralChanges, structural(path, models.StructuralModified, p.after))
	}
	for _, d := range removed {
		result.StructuralChanges = append(result.StructuralChanges, structural(path, models.StructuralRemoved, d))
	}

	result.SemanticImpacts = append(result.SemanticImpacts, impacts(path, result.StructuralChanges, modifiedKinds(modified))...)
	if impact, ok := dependencyImpact(path, oldFile.imports, newFile.imports); ok {
		result.SemanticImpacts = append(result.SemanticImpacts, impact)
	}
}

// detectRenames pairs each removed declaration with the most similar added
// declaration of the same kind and owner. A pair only counts when the old
// name is gone and the new name did not exist before, which the qualified
// index already guarantees.
func detectRenames(path string, removed, added []decl) []models.Refactoring {
	var out []models.Refactoring
	used := make(map[string]bool)

	for _, r := range removed {
		var (
			best      decl
			bestScore float64
			found     bool
		)
		for _, a := range added {
			if used[a.qualified] || a.kind != r.kind || a.owner != r.owner {
				continue
			}
			score := similarity(r.body, a.body, renameMinSimilarity)
			if score >= renameMinSimilarity && score > bestScore {
				best, bestScore, found = a, score, true
			}
		}
		if !found {
			continue
		}
		used[best.qualified] = true

		kind, confidence, ok := renameKind(r.kind)
		if !ok {
			continue
		}
		out = append(out, models.Refactoring{
			Kind:        kind,
			From:        r.qualified,
			To:          best.qualified,
			Confidence:  confidence,
			File:        path,
			Description: fmt.Sprintf("%s %s renamed to %s (%.0f%% body similarity)", r.kind, r.name, best.name, bestScore*100),
		})
	}
	return out
}

func renameKind(k declKind) (models.RefactoringKind, float64, bool) {
	switch k {
	case declFunction:
		return models.RefactorFunctionRename, functionRenameConfidence, true
	case declMethod:
		return models.RefactorMethodRename, methodRenameConfidence, true
	case declClass:
		return models.RefactorClassRename, classRenameConfidence, true
	default:
		return "", 0, false
	}
}

// detectExtractInline looks at a modified function: it shrank and now calls
// a newly added function (extract), or it grew and stopped calling a removed
// one (inline).
func detectExtractInline(path string, before, after decl, removed, added []decl) []models.Refactoring {
	if before.kind != declFunction && before.kind != declMethod {
		return nil
	}
	var out []models.Refactoring
	if len(after.body) < len(before.body) {
		for _, a := range added {
			if (a.kind == declFunction || a.kind == declMethod) && calls(after.body, a.name) && !calls(before.body, a.name) {
				out = append(out, models.Refactoring{
					Kind:        models.RefactorExtractMethod,
					From:        after.qualified,
					To:          a.qualified,
					Confidence:  extractMethodConfidence,
					File:        path,
					Description: fmt.Sprintf("logic extracted from %s into %s", after.name, a.name),
				})
			}
		}
	}
	if len(after.body) > len(before.body) {
		for _, r := range removed {
			if (r.kind == declFunction || r.kind == declMethod) && calls(before.body, r.name) && !calls(after.body, r.name) {
				out = append(out, models.Refactoring{
					Kind:        models.RefactorInlineFunction,
					From:        r.qualified,
					To:          after.qualified,
					Confidence:  inlineFunctionConfidence,
					File:        path,
					Description: fmt.Sprintf("%s inlined into %s", r.name, after.name),
				})
			}
		}
	}
	return out
}

func calls(body, name string) bool {
	return strings.Contains(body, name+"(") || strings.Contains(body, name+" (")
}

func structural(path string, kind models.StructuralChangeKind, d decl) models.StructuralChange {
	return models.StructuralChange{
		Kind:        kind,
		NodeKind:    string(d.kind),
		Name:        d.qualified,
		File:        path,
		LineRange:   &models.LineRange{Start: d.startLine, End: d.endLine},
		IsPublicAPI: d.public,
	}
}

func modifiedKinds(pairs []declPair) map[string]declKind {
	kinds := make(map[string]declKind, len(pairs))
	for _, p := range pairs {
		kinds[p.after.qualified] = p.after.kind
	}
	return kinds
}

// impacts reports at most one caller-facing impact per file: a breaking
// change when public declarations were removed, otherwise an API change when
// public declarations were modified. Additions only extend the API and are
// not reported. Modified public types additionally get a type change.
func impacts(path string, changes []models.StructuralChange, kinds map[string]declKind) []models.SemanticImpact {
	var removed, modified []string
	var out []models.SemanticImpact
	for _, c := range changes {
		if !c.IsPublicAPI {
			continue
		}
		switch c.Kind {
		case models.StructuralRemoved:
			removed = append(removed, c.Name)
		case models.StructuralModified:
			modified = append(modified, c.Name)
			if k := kinds[c.Name]; k == declInterface || k == declType || k == declClass {
				out = append(out, models.SemanticImpact{
					Kind:        models.ImpactTypeChange,
					File:        path,
					Severity:    models.SeverityLow,
					Description: fmt.Sprintf("shape of %s %s changed", c.NodeKind, c.Name),
				})
			}
		}
	}

	switch {
	case len(removed) > 0:
		out = append([]models.SemanticImpact{{
			Kind:        models.ImpactBreakingChange,
			File:        path,
			Severity:    models.SeverityHigh,
			Description: "public API removed: " + strings.Join(removed, ", "),
		}}, out...)
	case len(modified) > 0:
		out = append([]models.SemanticImpact{{
			Kind:        models.ImpactAPIChange,
			File:        path,
			Severity:    models.SeverityMedium,
			Description: "public API changed: " + strings.Join(modified, ", "),
		}}, out...)
	}
	return out
}

func dependencyImpact(path string, before, after []string) (models.SemanticImpact, bool) {
	added, removed := setDiff(after, before), setDiff(before, after)
	if len(added) == 0 && len(removed) == 0 {
		return models.SemanticImpact{}, false
	}
	var parts []string
	if len(added) > 0 {
		parts = append(parts, "added "+strings.Join(added, ", "))
	}
	if len(removed) > 0 {
		parts = append(parts, "removed "+strings.Join(removed, ", "))
	}
	return models.SemanticImpact{
		Kind:        models.ImpactDependencyChange,
		File:        path,
		Severity:    models.SeverityLow,
		Description: "imports " + strings.Join(parts, "; "),
	}, true
}

// setDiff returns the sorted elements of a missing from b.
func setDiff(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, s := range a {
		if !in[s] && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
