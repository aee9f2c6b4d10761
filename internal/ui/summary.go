package ui

import (
	"io"
	"strings"

	"github.com/thomas-vilte/materelease/internal/i18n"
	"github.com/thomas-vilte/materelease/internal/models"
)

// PrintReleaseSummary prints one line per handled repository.
func PrintReleaseSummary(w io.Writer, t *i18n.Translations, results []*models.ReleaseResult) {
	PrintSectionBanner(w, t.GetMessage("release_summary_header", 0, nil))

	for _, r := range results {
		if r.Boundary.Empty() {
			PrintInfo(w, t.GetMessage("release_nothing", 0, map[string]interface{}{
				"Repository": r.Repository,
			}))
			continue
		}

		data := map[string]interface{}{
			"Repository": r.Repository,
			"Tag":        r.TagName,
			"Target":     shortSHA(r.TagTarget),
			"Previous":   r.PreviousVersion.String(),
			"Version":    r.Version.String(),
		}
		switch {
		case r.DryRun && r.TagName == "":
			PrintInfo(w, t.GetMessage("release_dry_run_unversioned", 0, data))
		case r.DryRun:
			PrintInfo(w, t.GetMessage("release_dry_run", 0, data))
		default:
			PrintSuccess(w, t.GetMessage("release_done", 0, data))
		}
		if !r.Boundary.IsBranchTip {
			PrintWarning(w, t.GetMessage("release_partial", 0, data))
		}
		if tickets := r.Tickets(); len(tickets) > 0 {
			PrintKeyValue(w, "tickets", strings.Join(tickets, ", "))
		}
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
