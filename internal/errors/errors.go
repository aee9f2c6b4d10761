package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeGit           ErrorType = "GIT"
	TypeManifest      ErrorType = "MANIFEST"
	TypeTracker       ErrorType = "TRACKER"
	TypeRelease       ErrorType = "RELEASE"
	TypeNotification  ErrorType = "NOTIFICATION"
	TypeVCS           ErrorType = "VCS"
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
		if repo, ok := e.Context["repository"].(string); ok && repo != "" {
			msg += fmt.Sprintf(" [%s]", repo)
		}
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same type and message, so a
// sentinel still matches after WithError or WithContext produced a copy.
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

// TransactionStepError reports which release step failed. Err is the original
// failure, joined with the compensation error when the rollback failed too.
type TransactionStepError struct {
	Step string
	Err  error
}

func (e *TransactionStepError) Error() string {
	return fmt.Sprintf("release step %q failed: %v", e.Step, e.Err)
}

func (e *TransactionStepError) Unwrap() error {
	return e.Err
}

// Git errors
var (
	ErrBranchNotFound = NewAppError(TypeGit, "Branch not found in repository", nil).
				WithSuggestion("List local branches: git branch --list")

	ErrInvalidBranch = NewAppError(TypeGit, "Repository is not on the release branch", nil).
				WithSuggestion("Check out the master branch before releasing")

	ErrListTags = NewAppError(TypeGit, "Failed to list tags", nil)

	ErrGetCommits = NewAppError(TypeGit, "Failed to get commits", nil).
			WithSuggestion("Make sure you have commits in your repository: git log")

	ErrFetchTags = NewAppError(TypeGit, "Failed to fetch tags from remote", nil).
			WithSuggestion("Check your network connection and remote access")

	ErrAddFile = NewAppError(TypeGit, "Failed to add file to staging", nil).
			WithSuggestion("Check if the file exists and you have write permissions")

	ErrCreateCommit = NewAppError(TypeGit, "Failed to create commit", nil).
			WithSuggestion("Make sure the manifest actually changed and the author is configured")

	ErrPush = NewAppError(TypeGit, "Failed to push to remote", nil).
		WithSuggestion("Verify remote is configured: git remote -v")

	ErrCreateTag = NewAppError(TypeGit, "Failed to create tag", nil).
			WithSuggestion("Make sure the tag doesn't already exist: git tag -l")

	ErrPushTag = NewAppError(TypeGit, "Failed to push tag", nil).
			WithSuggestion("Check your remote connection: git remote -v")

	ErrDeleteTag = NewAppError(TypeGit, "Failed to delete local tag", nil)

	ErrValidateTag = NewAppError(TypeGit, "Failed to validate tag existence", nil)

	ErrTagAlreadyExists = NewAppError(TypeGit, "Tag already exists", nil).
				WithSuggestion("Check the manifest version against existing tags: git ls-remote --tags")

	ErrResetRepository = NewAppError(TypeGit, "Failed to reset repository", nil)

	ErrInvalidRepositoryState = NewAppError(TypeGit, "Invalid state in repository, please check last commits", nil).
					WithSuggestion("Inspect the branch history: git log --oneline -5")

	ErrGetRepoURL = NewAppError(TypeGit, "Failed to get repository URL", nil).
			WithSuggestion("Add a remote: git remote add origin <url>")

	ErrExtractRepoInfo = NewAppError(TypeGit, "Failed to extract repository info", nil)
)

// Manifest errors
var (
	ErrManifestMissing = NewAppError(TypeManifest, "Manifest file does not exist", nil).
				WithSuggestion("Add a package.json or set manifest_file for the repository")

	ErrManifestInvalid = NewAppError(TypeManifest, "Manifest file is not valid JSON", nil)

	ErrVersionMissing = NewAppError(TypeManifest, "Manifest does not contain a version", nil).
				WithSuggestion("Add a \"version\": \"0.0.0\" field to the manifest")

	ErrVersionParse = NewAppError(TypeManifest, "Unable to parse manifest version", nil).
			WithSuggestion("Use a three part numeric version: 1.2.3")

	ErrWriteManifest = NewAppError(TypeManifest, "Failed to write manifest", nil)
)

// Tracker errors
var (
	ErrTrackerQuery = NewAppError(TypeTracker, "Issue tracker query failed", nil).
			WithSuggestion("Check the Jira url and credentials in the configuration")

	ErrMissingStatusRule = NewAppError(TypeTracker, "No label rule configured for issue status", nil).
				WithSuggestion("Add the status to jira.project.rules")

	ErrProjectValidation = NewAppError(TypeTracker, "Project validation failed. See logs for more details", nil)
)

// Notification and VCS hosting errors
var (
	ErrSendMessage = NewAppError(TypeNotification, "Failed to send chat message", nil)

	ErrCreateRelease = NewAppError(TypeVCS, "failed to create release", nil).
				WithSuggestion("Check your GitHub token has 'repo' permissions")
)

// Configuration errors
var (
	ErrConfigMissing = NewAppError(TypeConfiguration, "Missing configuration file", nil).
				WithSuggestion("Pass the configuration path: mate-release release -c config.json")

	ErrConfigInvalid = NewAppError(TypeConfiguration, "Configuration is invalid", nil)

	ErrConfigFormat = NewAppError(TypeConfiguration, "Unsupported configuration format", nil).
			WithSuggestion("Use a .json, .toml, .yaml or .yml file")
)

// Release errors
var (
	ErrNoMatchingRepository = NewAppError(TypeRelease, "No configured repository matches the filter", nil).
				WithSuggestion("Pass a repository path or directory name exactly as configured")

	ErrCommitMessageTemplate = NewAppError(TypeRelease, "Invalid commit message template", nil).
					WithSuggestion("Use {{.Version}} in increment_version_message_template")

	ErrTrackerNotConfigured = NewAppError(TypeRelease, "Issue tracker is required to gate the release", nil).
				WithSuggestion("Configure the jira section or pass --skip-validation")
)
