package tickets

import (
	"context"

	"github.com/thomas-vilte/materelease/internal/models"
)

// TicketManager is the issue tracker seen by release gating and project validation.
type TicketManager interface {
	GetLabels(ctx context.Context, ticketID string) ([]string, error)
	GetIssues(ctx context.Context) ([]models.Issue, error)
}
