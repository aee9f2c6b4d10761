package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_WithError(t *testing.T) {
	baseErr := errors.New("original error")
	appErr := ErrPush.WithError(baseErr)

	if appErr.Err != baseErr {
		t.Errorf("Expected underlying error to be %v, got %v", baseErr, appErr.Err)
	}

	if appErr.Type != TypeGit {
		t.Errorf("Expected type %s, got %s", TypeGit, appErr.Type)
	}
}

func TestAppError_WithContext(t *testing.T) {
	appErr := ErrAddFile.WithContext("file", "package.json").WithContext("stderr", "file not found")

	if appErr.Context["file"] != "package.json" {
		t.Errorf("Expected file context 'package.json', got %v", appErr.Context["file"])
	}

	if appErr.Context["stderr"] != "file not found" {
		t.Errorf("Expected stderr context 'file not found', got %v", appErr.Context["stderr"])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		contains []string
	}{
		{
			name: "Simple error without underlying error",
			err:  ErrVersionMissing,
			contains: []string{
				"MANIFEST",
				"Manifest does not contain a version",
			},
		},
		{
			name: "Error with underlying error",
			err:  ErrBranchNotFound.WithError(errors.New("develop")),
			contains: []string{
				"GIT",
				"Branch not found in repository",
				"develop",
			},
		},
		{
			name: "Error with repository and stderr context",
			err: ErrPush.WithError(errors.New("exit status 128")).
				WithContext("repository", "/srv/api").
				WithContext("stderr", "remote rejected"),
			contains: []string{
				"GIT",
				"Failed to push to remote",
				"exit status 128",
				"[/srv/api]",
				"remote rejected",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errMsg := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errMsg, substr) {
					t.Errorf("Expected error message to contain %q, got: %s", substr, errMsg)
				}
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	appErr := ErrCreateCommit.WithError(baseErr)

	unwrapped := appErr.Unwrap()
	if unwrapped != baseErr {
		t.Errorf("Expected unwrapped error to be %v, got %v", baseErr, unwrapped)
	}

	if !errors.Is(appErr, baseErr) {
		t.Error("errors.Is should work with AppError")
	}
}

func TestAppError_IsMatchesSentinelCopies(t *testing.T) {
	err := fmt.Errorf("releasing: %w", ErrTagAlreadyExists.
		WithContext("tag", "uat/1.0.1").
		WithError(errors.New("found on remote")))

	if !errors.Is(err, ErrTagAlreadyExists) {
		t.Error("copy of sentinel should match with errors.Is")
	}
	if errors.Is(err, ErrCreateTag) {
		t.Error("different sentinel of the same type must not match")
	}
}

func TestAppError_ChainedContext(t *testing.T) {
	appErr := ErrCreateTag.
		WithError(errors.New("tag exists")).
		WithContext("tag", "uat/1.0.0").
		WithContext("remote", "origin")

	if appErr.Context["tag"] != "uat/1.0.0" {
		t.Errorf("Expected tag context, got %v", appErr.Context["tag"])
	}

	if appErr.Context["remote"] != "origin" {
		t.Errorf("Expected remote context, got %v", appErr.Context["remote"])
	}

	if ErrCreateTag.Context != nil {
		t.Error("Original error should not have context")
	}
}

func TestTransactionStepError(t *testing.T) {
	cause := ErrPush.WithError(errors.New("exit status 1"))
	stepErr := &TransactionStepError{Step: "push", Err: cause}

	if !strings.Contains(stepErr.Error(), `"push"`) {
		t.Errorf("Expected step name in message, got: %s", stepErr.Error())
	}
	if !errors.Is(stepErr, ErrPush) {
		t.Error("step error should unwrap to the original failure")
	}

	var target *TransactionStepError
	if !errors.As(fmt.Errorf("wrapped: %w", stepErr), &target) || target.Step != "push" {
		t.Error("errors.As should find the step error")
	}
}
