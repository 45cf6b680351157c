package analyzer

import (
	"path"
	"strings"

	"github.com/thomas-vilte/commitlens/internal/models"
)

type fileClass int

const (
	classOther fileClass = iota
	classSource
	classTest
	classDoc
	classConfig
	classDependency
)

var sourceExtensions = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".py": true, ".rb": true, ".java": true, ".kt": true, ".kts": true, ".rs": true, ".c": true,
	".h": true, ".cc": true, ".cpp": true, ".hpp": true, ".cs": true, ".swift": true, ".php": true,
	".scala": true, ".vue": true, ".svelte": true, ".dart": true, ".m": true, ".sh": true,
	".lua": true, ".ex": true, ".exs": true, ".sql": true,
}

var docExtensions = map[string]bool{
	".md": true, ".markdown": true, ".rst": true, ".adoc": true, ".txt": true,
}

var configExtensions = map[string]bool{
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true, ".cfg": true,
	".conf": true, ".env": true, ".properties": true, ".xml": true,
}

var configBaseNames = map[string]bool{
	"dockerfile": true, "makefile": true, ".gitignore": true, ".editorconfig": true,
	".dockerignore": true, ".gitattributes": true, "docker-compose.yml": true,
}

var dependencyManifests = map[string]bool{
	"go.mod": true, "go.sum": true, "package.json": true, "package-lock.json": true,
	"yarn.lock": true, "pnpm-lock.yaml": true, "requirements.txt": true, "pyproject.toml": true,
	"poetry.lock": true, "pipfile": true, "pipfile.lock": true, "cargo.toml": true,
	"cargo.lock": true, "gemfile": true, "gemfile.lock": true, "pom.xml": true,
	"build.gradle": true, "build.gradle.kts": true, "composer.json": true, "composer.lock": true,
}

var coreDomainSegments = map[string]bool{
	"service": true, "services": true, "usecase": true, "usecases": true,
	"use_case": true, "use_cases": true, "use-case": true, "use-cases": true,
	"domain": true, "core": true,
}

func classifyFile(p string) fileClass {
	base := strings.ToLower(path.Base(p))
	ext := path.Ext(base)

	switch {
	case isTestFile(p):
		return classTest
	case dependencyManifests[base]:
		return classDependency
	case docExtensions[ext], strings.HasPrefix(base, "readme"), strings.HasPrefix(base, "changelog"):
		return classDoc
	case configExtensions[ext], configBaseNames[base], strings.HasPrefix(p, ".github/"):
		return classConfig
	case sourceExtensions[ext]:
		return classSource
	default:
		return classOther
	}
}

func isTestFile(p string) bool {
	lower := strings.ToLower(p)
	base := path.Base(lower)
	if strings.HasPrefix(base, "test_") {
		return true
	}
	for _, marker := range []string{"_test.", ".test.", ".spec.", "__tests__/"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	slashed := "/" + lower
	return strings.Contains(slashed, "/test/") || strings.Contains(slashed, "/tests/")
}

func isMarkdown(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".md" || ext == ".markdown"
}

func inCoreDomain(p string) bool {
	for _, seg := range strings.Split(path.Dir(strings.ToLower(p)), "/") {
		if coreDomainSegments[seg] {
			return true
		}
	}
	return false
}

// fileImportance ranks a touched file by how much it says about the commit.
func fileImportance(p string, class fileClass, isNew bool, changed int) models.Importance {
	if class == classTest || isMarkdown(p) {
		return models.ImportanceLow
	}
	switch {
	case isNew && class == classSource:
		return models.ImportanceHigh
	case inCoreDomain(p) && changed > 20:
		return models.ImportanceHigh
	case class == classSource && changed > 50:
		return models.ImportanceHigh
	}
	return models.ImportanceMedium
}

// ClassifyComplexity is a pure function of the three size signals.
func ClassifyComplexity(files, changedLines, symbols int) models.Complexity {
	switch {
	case files <= 2 && changedLines < 50 && symbols <= 3:
		return models.ComplexitySimple
	case files > 5 || changedLines > 200 || symbols > 10:
		return models.ComplexityComplex
	default:
		return models.ComplexityModerate
	}
}
