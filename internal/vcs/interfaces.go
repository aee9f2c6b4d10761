package vcs

import "context"

// ReleasePublisher publishes a hosted release page for an already pushed tag.
type ReleasePublisher interface {
	CreateRelease(ctx context.Context, tagName, name, body string) (string, error)
}
