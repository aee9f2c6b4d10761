package models

import "github.com/thomas-vilte/materelease/internal/semver"

// Commit is a raw commit as read from history.
type Commit struct {
	SHA     string
	Message string
}

// TagRef is a tag name and the commit it points to, peeled for annotated tags.
type TagRef struct {
	Name      string
	CommitSHA string
}

// CommitRecord is one unreleased commit. An empty TicketID means no ticket
// was referenced, which makes the commit releasable unconditionally.
type CommitRecord struct {
	SHA      string `json:"sha"`
	TicketID string `json:"ticket_id,omitempty"`
}

func (c CommitRecord) HasTicket() bool {
	return c.TicketID != ""
}

// ReleaseTag is a repository tag whose name embeds a release version.
type ReleaseTag struct {
	Name      string         `json:"name"`
	Version   semver.Version `json:"version"`
	CommitSHA string         `json:"commit_sha"`
}

// ReleaseBoundary is the newest commit that is safe to release. Commit is nil
// when nothing is releasable. IsBranchTip is false when a newer commit exists
// that is blocked by its ticket.
type ReleaseBoundary struct {
	Commit      *CommitRecord `json:"commit,omitempty"`
	IsBranchTip bool          `json:"is_branch_tip"`
}

func (b ReleaseBoundary) Empty() bool {
	return b.Commit == nil
}

type (
	Credentials struct {
		Username string
		Token    string
	}

	Author struct {
		Name  string
		Email string
	}

	// RepositoryTarget is the resolved configuration for one repository.
	RepositoryTarget struct {
		Path                  string
		MasterBranch          string
		TagPrefix             string
		RemoteName            string
		ManifestFile          string
		TicketPrefix          string
		CommitMessageTemplate string
		AutoFetch             bool
		Credentials           Credentials
		Author                Author
	}
)

// ReleaseResult summarizes what the coordinator decided or did for a repository.
type ReleaseResult struct {
	Repository      string
	Boundary        ReleaseBoundary
	Commits         []CommitRecord
	PreviousVersion semver.Version
	Version         semver.Version
	TagName         string
	TagTarget       string
	VersionCommit   string
	DryRun          bool
}

// Tickets lists the distinct tickets released up to the boundary, in order.
func (r *ReleaseResult) Tickets() []string {
	if r.Boundary.Commit == nil {
		return nil
	}

	seen := make(map[string]bool)
	var tickets []string
	for _, c := range r.Commits {
		if c.HasTicket() && !seen[c.TicketID] {
			seen[c.TicketID] = true
			tickets = append(tickets, c.TicketID)
		}
		if c.SHA == r.Boundary.Commit.SHA {
			break
		}
	}
	return tickets
}
