package models

type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolType      SymbolKind = "type"
	SymbolConst     SymbolKind = "const"
	SymbolMethod    SymbolKind = "method"
)

type ChangePatternKind string

const (
	PatternTestAddition     ChangePatternKind = "test_addition"
	PatternTestModification ChangePatternKind = "test_modification"
	PatternBugFix           ChangePatternKind = "bug_fix"
	PatternRefactoring      ChangePatternKind = "refactoring"
	PatternFeatureAddition  ChangePatternKind = "feature_addition"
	PatternDocumentation    ChangePatternKind = "documentation"
	PatternConfiguration    ChangePatternKind = "configuration"
	PatternDependencyUpdate ChangePatternKind = "dependency_update"
	PatternErrorHandling    ChangePatternKind = "error_handling"
	PatternTypeDefinition   ChangePatternKind = "type_definition"
	PatternPerformance      ChangePatternKind = "performance"
)

type RelationshipKind string

const RelationshipImport RelationshipKind = "import"

type FileChangeType string

const (
	FileCreated  FileChangeType = "created"
	FileModified FileChangeType = "modified"
	FileDeleted  FileChangeType = "deleted"
)

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Rank orders importance levels, higher first.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

type (
	// ModifiedSymbol is a declaration found on an added line of a non-test file.
	ModifiedSymbol struct {
		File string     `json:"file"`
		Name string     `json:"name"`
		Kind SymbolKind `json:"kind"`
	}

	ChangePattern struct {
		Kind        ChangePatternKind `json:"kind"`
		Description string            `json:"description"`
		Occurrences int               `json:"occurrences"`
		Confidence  float64           `json:"confidence"`
	}

	FileRelationship struct {
		From string           `json:"from"`
		To   string           `json:"to"`
		Kind RelationshipKind `json:"kind"`
	}

	FileChange struct {
		Path         string         `json:"path"`
		LinesAdded   int            `json:"lines_added"`
		LinesRemoved int            `json:"lines_removed"`
		IsNew        bool           `json:"is_new"`
		ChangeType   FileChangeType `json:"change_type"`
		Importance   Importance     `json:"importance"`
	}

	DiffSummary struct {
		TotalFiles     int `json:"total_files"`
		LinesAdded     int `json:"lines_added"`
		LinesRemoved   int `json:"lines_removed"`
		SourceFiles    int `json:"source_files"`
		TestFiles      int `json:"test_files"`
		NewFiles       int `json:"new_files"`
		DeletedFiles   int `json:"deleted_files"`
		ChangedSymbols int `json:"changed_symbols"`
	}

	// DiffAnalysis is built once per commit attempt and never mutated afterwards.
	DiffAnalysis struct {
		ModifiedSymbols   []ModifiedSymbol   `json:"modified_symbols"`
		ChangePatterns    []ChangePattern    `json:"change_patterns"`
		FileRelationships []FileRelationship `json:"file_relationships"`
		FileChanges       []FileChange       `json:"file_changes"`
		Complexity        Complexity         `json:"complexity"`
		Summary           DiffSummary        `json:"summary"`
	}
)

// TotalChangedLines returns added plus removed lines.
func (f FileChange) TotalChangedLines() int {
	return f.LinesAdded + f.LinesRemoved
}

// TotalChangedLines returns added plus removed lines across the change set.
func (s DiffSummary) TotalChangedLines() int {
	return s.LinesAdded + s.LinesRemoved
}

// HasPattern reports whether a pattern of the given kind was detected.
func (a DiffAnalysis) HasPattern(kind ChangePatternKind) bool {
	for _, p := range a.ChangePatterns {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

// SymbolsInFile returns the symbols extracted for a single file, in extraction order.
func (a DiffAnalysis) SymbolsInFile(file string) []ModifiedSymbol {
	var out []ModifiedSymbol
	for _, s := range a.ModifiedSymbols {
		if s.File == file {
			out = append(out, s)
		}
	}
	return out
}
