package service

import (
	"context"
	"strings"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/repository"
	apperrors "github.com/spec-kit/parcel-helpdesk/pkg/util"
)

// CustomerSearchInput matches customers by any populated field.
type CustomerSearchInput struct {
	Phone string
	Name  string
	Email string
	Limit int
}

// CustomerMatch is a customer with their unfinished tickets.
type CustomerMatch struct {
	Customer    domain.Customer
	OpenTickets []domain.Ticket
}

var openStatuses = []domain.TicketStatus{
	domain.TicketStatusNew,
	domain.TicketStatusInProgress,
	domain.TicketStatusPending,
}

// SearchCustomers looks customers up so staff can attach a new ticket to an
// existing record.
func (s *TicketService) SearchCustomers(ctx context.Context, input CustomerSearchInput) ([]CustomerMatch, error) {
	query := repository.CustomerQuery{
		Phone: domain.NormalizePhone(input.Phone),
		Name:  strings.TrimSpace(input.Name),
		Email: strings.TrimSpace(input.Email),
		Limit: input.Limit,
	}
	if query.Phone == "" && query.Name == "" && query.Email == "" {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{
			"query": "กรุณาระบุเบอร์โทรศัพท์ ชื่อ หรืออีเมล",
		})
	}

	repos := s.store.Repos()
	customers, err := repos.Customers.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	matches := make([]CustomerMatch, 0, len(customers))
	for _, c := range customers {
		id := c.ID
		open, err := repos.Tickets.List(ctx, repository.TicketFilter{
			CustomerID: &id,
			Statuses:   openStatuses,
			Limit:      50,
		})
		if err != nil {
			return nil, err
		}
		matches = append(matches, CustomerMatch{Customer: c, OpenTickets: open})
	}
	return matches, nil
}
