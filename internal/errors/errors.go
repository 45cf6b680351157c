package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeInput         ErrorType = "INPUT"
	TypeAI            ErrorType = "AI"
	TypeGit           ErrorType = "GIT"
	TypePipeline      ErrorType = "PIPELINE"
	TypeStorage       ErrorType = "STORAGE"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors of the same type and message, so derived errors
// (WithError, WithContext) still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Input errors
var (
	ErrNothingToAnalyze = NewAppError(TypeInput, "Nothing to analyze", nil).
				WithSuggestion("Stage your changes first with: git add <files>")

	ErrNoStagedFiles = NewAppError(TypeInput, "No staged files detected", nil).
				WithSuggestion("Stage your changes first with: git add <files>")
)

// Git errors
var (
	ErrNotInGitRepo = NewAppError(TypeGit, "Not in a git repository", nil).
			WithSuggestion("Initialize a git repository: git init")

	ErrGetDiff = NewAppError(TypeGit, "Failed to get diff", nil).
			WithSuggestion("Check if you have staged changes: git status")

	ErrGetChangedFiles = NewAppError(TypeGit, "Failed to get changed files", nil).
				WithSuggestion("Verify you have staged changes: git status")

	ErrGetBranch = NewAppError(TypeGit, "Failed to get current branch", nil).
			WithSuggestion("Make sure you are in a git repository: git status")

	ErrGetRecentCommits = NewAppError(TypeGit, "Failed to get recent commit messages", nil).
				WithSuggestion("Verify repository has commits: git log --oneline")

	ErrReadFileAtHEAD = NewAppError(TypeGit, "Failed to read file at HEAD", nil)

	ErrReadStagedFile = NewAppError(TypeGit, "Failed to read staged file content", nil)

	ErrCreateCommit = NewAppError(TypeGit, "Failed to create commit", nil).
			WithSuggestion("Ensure git user is configured:\n   git config --global user.name \"Your Name\"\n   git config --global user.email \"your@email.com\"")
)

// Configuration errors
var (
	ErrAPIKeyMissing = NewAppError(TypeConfiguration, "AI API key is missing", nil).
				WithSuggestion("Export GEMINI_API_KEY / OPENAI_API_KEY or run: commitlens config set-key <provider>")

	ErrConfigInvalid = NewAppError(TypeConfiguration, "Configuration is invalid", nil).
				WithSuggestion("Review ~/.commitlens/config.toml or run: commitlens config show")

	ErrProviderNotSupported = NewAppError(TypeConfiguration, "AI provider not supported", nil).
				WithSuggestion("Supported providers: gemini, openai")

	ErrKeyring = NewAppError(TypeConfiguration, "OS keyring is not accessible", nil)
)

// AI errors
var (
	ErrProviderUnavailable = NewAppError(TypeAI, "Text generation provider unavailable", nil).
				WithSuggestion("Check your network connection and API key, then try again")

	ErrQuotaExceeded = NewAppError(TypeAI, "AI quota exceeded or rate limited", nil).
				WithSuggestion("Wait a few minutes and try again, or check your API quota")

	ErrAIGeneration = NewAppError(TypeAI, "AI generation failed", nil).
			WithSuggestion("Try again or check your API key configuration")

	ErrInvalidAIOutput = NewAppError(TypeAI, "invalid AI output format", nil).
				WithSuggestion("This is likely a temporary issue, please try again")

	ErrAPIKeyInvalid = NewAppError(TypeAI, "AI API key is invalid", nil).
				WithSuggestion("Check the key for the active provider, then run: commitlens config set-key <provider>")
)

// Pipeline errors
var (
	ErrPipelineCancelled = NewAppError(TypePipeline, "Commit generation was cancelled", nil)

	ErrPipelinePanic = NewAppError(TypePipeline, "Unexpected failure while generating the commit message", nil).
				WithSuggestion("Run again with --debug and report the output")
)

// Storage errors
var (
	ErrHistoryOpen = NewAppError(TypeStorage, "Failed to open history database", nil)
	ErrHistorySave = NewAppError(TypeStorage, "Failed to save pipeline run", nil)
	ErrHistoryRead = NewAppError(TypeStorage, "Failed to read pipeline history", nil)
	ErrCacheIO     = NewAppError(TypeStorage, "Response cache I/O failed", nil)
)
