package ui

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/models"
	"github.com/thomas-vilte/materelease/internal/semver"
)

func init() {
	color.NoColor = true
}

func TestHandleAppError(t *testing.T) {
	t.Run("app error with details and suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		err := domainErrors.ErrTagAlreadyExists.
			WithError(fmt.Errorf("uat/1.4.8 exists on origin")).
			WithContext("tag", "uat/1.4.8")

		HandleAppError(&buf, err)

		out := buf.String()
		assert.Contains(t, out, "GIT: Tag already exists")
		assert.Contains(t, out, "Details: uat/1.4.8 exists on origin")
		assert.Contains(t, out, "tag: uat/1.4.8")
		assert.Contains(t, out, "Try: Check the manifest version")
	})

	t.Run("transaction step error names the step", func(t *testing.T) {
		var buf bytes.Buffer
		err := &domainErrors.TransactionStepError{Step: "push", Err: domainErrors.ErrPush}

		HandleAppError(&buf, err)

		assert.Contains(t, buf.String(), "step: push")
		assert.Contains(t, buf.String(), "Failed to push to remote")
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, errors.New("boom"))
		assert.Equal(t, ErrorMark+" boom\n", buf.String())
	})

	t.Run("nil error prints nothing", func(t *testing.T) {
		var buf bytes.Buffer
		HandleAppError(&buf, nil)
		assert.Empty(t, buf.String())
	})
}

func TestPrintReleaseSummary(t *testing.T) {
	trans, err := i18n.NewTranslations("en")
	require.NoError(t, err)

	boundary := models.CommitRecord{SHA: "0123456789abcdef", TicketID: "HOST-2"}
	results := []*models.ReleaseResult{
		{Repository: "/srv/web"},
		{
			Repository:      "/srv/api",
			Commits:         []models.CommitRecord{{SHA: "aaa", TicketID: "HOST-1"}, boundary, {SHA: "ccc", TicketID: "HOST-3"}},
			Boundary:        models.ReleaseBoundary{Commit: &boundary, IsBranchTip: false},
			PreviousVersion: semver.MustParse("1.4.7"),
			Version:         semver.MustParse("1.4.8"),
			TagName:         "uat/1.4.8",
			TagTarget:       boundary.SHA,
			DryRun:          true,
		},
		{
			Repository: "/srv/jobs",
			Boundary:   models.ReleaseBoundary{Commit: &boundary, IsBranchTip: true},
			TagTarget:  boundary.SHA,
			DryRun:     true,
		},
	}

	var buf bytes.Buffer
	PrintReleaseSummary(&buf, trans, results)

	out := buf.String()
	assert.Contains(t, out, "Release summary")
	assert.Contains(t, out, "/srv/web: nothing to release")
	assert.Contains(t, out, "/srv/api: would release uat/1.4.8 at 01234567 (1.4.7 -> 1.4.8)")
	assert.Contains(t, out, "/srv/api: blocked commits remain after 01234567")
	assert.Contains(t, out, "tickets: HOST-1, HOST-2")
	assert.Contains(t, out, "/srv/jobs: would release 01234567, next version unknown")
}
