package models

type RefactoringKind string

const (
	RefactorFunctionRename RefactoringKind = "function_rename"
	RefactorMethodRename   RefactoringKind = "method_rename"
	RefactorClassRename    RefactoringKind = "class_rename"
	RefactorExtractMethod  RefactoringKind = "extract_method"
	RefactorInlineFunction RefactoringKind = "inline_function"
	RefactorMoveFunction   RefactoringKind = "move_function"
	RefactorMoveClass      RefactoringKind = "move_class"
	RefactorExtractClass   RefactoringKind = "extract_class"
	RefactorMergeClasses   RefactoringKind = "merge_classes"
)

type StructuralChangeKind string

const (
	StructuralAdded    StructuralChangeKind = "added"
	StructuralModified StructuralChangeKind = "modified"
	StructuralRemoved  StructuralChangeKind = "removed"
)

type SemanticImpactKind string

const (
	ImpactAPIChange        SemanticImpactKind = "api_change"
	ImpactBreakingChange   SemanticImpactKind = "breaking_change"
	ImpactDependencyChange SemanticImpactKind = "dependency_change"
	ImpactTypeChange       SemanticImpactKind = "type_change"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type (
	Refactoring struct {
		Kind        RefactoringKind `json:"kind"`
		From        string          `json:"from"`
		To          string          `json:"to"`
		Confidence  float64         `json:"confidence"`
		File        string          `json:"file"`
		Description string          `json:"description,omitempty"`
	}

	LineRange struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}

	StructuralChange struct {
		Kind        StructuralChangeKind `json:"kind"`
		NodeKind    string               `json:"node_kind"`
		Name        string               `json:"name"`
		File        string               `json:"file"`
		LineRange   *LineRange           `json:"line_range,omitempty"`
		IsPublicAPI bool                 `json:"is_public_api"`
	}

	SemanticImpact struct {
		Kind        SemanticImpactKind `json:"kind"`
		File        string             `json:"file"`
		Severity    Severity           `json:"severity"`
		Description string             `json:"description,omitempty"`
	}

	// ASTAnalysis holds syntax-tree findings for one file. Slices are never nil.
	ASTAnalysis struct {
		File              string             `json:"file"`
		Refactorings      []Refactoring      `json:"refactorings"`
		StructuralChanges []StructuralChange `json:"structural_changes"`
		SemanticImpacts   []SemanticImpact   `json:"semantic_impact"`
	}
)

// EmptyASTAnalysis returns the "no findings" result for a file.
func EmptyASTAnalysis(file string) ASTAnalysis {
	return ASTAnalysis{
		File:              file,
		Refactorings:      []Refactoring{},
		StructuralChanges: []StructuralChange{},
		SemanticImpacts:   []SemanticImpact{},
	}
}

// IsEmpty reports whether the analysis carries no findings.
func (a ASTAnalysis) IsEmpty() bool {
	return len(a.Refactorings) == 0 && len(a.StructuralChanges) == 0 && len(a.SemanticImpacts) == 0
}

// HasBreakingChange reports whether a breaking_change impact was detected.
func (a ASTAnalysis) HasBreakingChange() bool {
	for _, impact := range a.SemanticImpacts {
		if impact.Kind == ImpactBreakingChange {
			return true
		}
	}
	return false
}
