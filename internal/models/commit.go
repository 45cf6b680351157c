package models

type (
	// CommitMessage is the in-memory form of a conventional commit.
	CommitMessage struct {
		Type     string `json:"type"`
		Scope    string `json:"scope,omitempty"`
		Subject  string `json:"subject"`
		Body     string `json:"body,omitempty"`
		Footer   string `json:"footer,omitempty"`
		Breaking bool   `json:"breaking,omitempty"`
	}

	// StagedChanges is what the diff source hands to the core.
	StagedChanges struct {
		Diff          string         `json:"-"`
		Files         []string       `json:"files"`
		Branch        string         `json:"branch"`
		RecentCommits []string       `json:"recent_commits"`
		Truncation    TruncationInfo `json:"truncation"`
	}

	TruncationInfo struct {
		Truncated      bool     `json:"truncated"`
		OriginalBytes  int      `json:"original_bytes"`
		FinalBytes     int      `json:"final_bytes"`
		FilesTruncated []string `json:"files_truncated,omitempty"`
	}
)

// IsZero reports whether no subject was produced.
func (m CommitMessage) IsZero() bool {
	return m.Subject == ""
}
