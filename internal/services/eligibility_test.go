package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/materelease/internal/models"
)

func releasableSet(ok map[string]bool, calls map[string]int) ReleasableFunc {
	return func(_ context.Context, ticketID string) (bool, error) {
		calls[ticketID]++
		return ok[ticketID], nil
	}
}

func TestResolveBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("Stops before the first blocked ticket", func(t *testing.T) {
		commits := []models.CommitRecord{
			{SHA: "c1"},
			{SHA: "c2", TicketID: "T1"},
			{SHA: "c3", TicketID: "T2"},
			{SHA: "c4", TicketID: "T3"},
		}
		calls := map[string]int{}
		check := releasableSet(map[string]bool{"T1": true, "T2": false, "T3": true}, calls)

		boundary, err := ResolveBoundary(ctx, commits, check)

		require.NoError(t, err)
		require.NotNil(t, boundary.Commit)
		assert.Equal(t, "c2", boundary.Commit.SHA)
		assert.False(t, boundary.IsBranchTip)
		assert.Zero(t, calls["T3"])
	})

	t.Run("Commit without ticket at the tip is releasable", func(t *testing.T) {
		commits := []models.CommitRecord{
			{SHA: "c1", TicketID: "T1"},
			{SHA: "c2"},
		}
		check := releasableSet(map[string]bool{"T1": true}, map[string]int{})

		boundary, err := ResolveBoundary(ctx, commits, check)

		require.NoError(t, err)
		assert.Equal(t, "c2", boundary.Commit.SHA)
		assert.True(t, boundary.IsBranchTip)
	})

	t.Run("Blocked first commit leaves nothing to release", func(t *testing.T) {
		commits := []models.CommitRecord{
			{SHA: "c1", TicketID: "T1"},
			{SHA: "c2"},
		}
		check := releasableSet(map[string]bool{}, map[string]int{})

		boundary, err := ResolveBoundary(ctx, commits, check)

		require.NoError(t, err)
		assert.True(t, boundary.Empty())
		assert.False(t, boundary.IsBranchTip)
	})

	t.Run("Empty history is an empty tip boundary", func(t *testing.T) {
		boundary, err := ResolveBoundary(ctx, []models.CommitRecord{}, AllReleasable)

		require.NoError(t, err)
		assert.True(t, boundary.Empty())
	})

	t.Run("Each ticket is asked once", func(t *testing.T) {
		commits := []models.CommitRecord{
			{SHA: "c1", TicketID: "T1"},
			{SHA: "c2", TicketID: "T1"},
			{SHA: "c3", TicketID: "T1"},
		}
		calls := map[string]int{}
		check := releasableSet(map[string]bool{"T1": true}, calls)

		boundary, err := ResolveBoundary(ctx, commits, check)

		require.NoError(t, err)
		assert.Equal(t, "c3", boundary.Commit.SHA)
		assert.True(t, boundary.IsBranchTip)
		assert.Equal(t, 1, calls["T1"])
	})

	t.Run("Tracker error aborts resolution", func(t *testing.T) {
		trackerErr := errors.New("jira unavailable")
		commits := []models.CommitRecord{{SHA: "c1"}, {SHA: "c2", TicketID: "T1"}}

		_, err := ResolveBoundary(ctx, commits, func(context.Context, string) (bool, error) {
			return false, trackerErr
		})

		assert.ErrorIs(t, err, trackerErr)
	})
}

func TestReleasabilityChecker_IsReleasable(t *testing.T) {
	ctx := context.Background()

	t.Run("Any allowed label releases the ticket", func(t *testing.T) {
		tracker := new(MockTicketManager)
		checker := NewReleasabilityChecker(tracker, []string{"QA_OK", "READY"})
		tracker.On("GetLabels", mock.Anything, "HOST-1").Return([]string{"backend", "READY"}, nil)

		ok, err := checker.IsReleasable(ctx, "HOST-1")

		require.NoError(t, err)
		assert.True(t, ok)
		tracker.AssertExpectations(t)
	})

	t.Run("Labels compare exactly", func(t *testing.T) {
		tracker := new(MockTicketManager)
		checker := NewReleasabilityChecker(tracker, []string{"READY"})
		tracker.On("GetLabels", mock.Anything, "HOST-2").Return([]string{"ready"}, nil)

		ok, err := checker.IsReleasable(ctx, "HOST-2")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("No labels blocks", func(t *testing.T) {
		tracker := new(MockTicketManager)
		checker := NewReleasabilityChecker(tracker, []string{"READY"})
		tracker.On("GetLabels", mock.Anything, "HOST-3").Return([]string{}, nil)

		ok, err := checker.IsReleasable(ctx, "HOST-3")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Tracker error propagates", func(t *testing.T) {
		tracker := new(MockTicketManager)
		checker := NewReleasabilityChecker(tracker, []string{"READY"})
		tracker.On("GetLabels", mock.Anything, "HOST-4").Return(nil, errors.New("401"))

		_, err := checker.IsReleasable(ctx, "HOST-4")

		assert.Error(t, err)
	})
}
