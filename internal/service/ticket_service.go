package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/events"
	"github.com/spec-kit/parcel-helpdesk/internal/repository"
	"github.com/spec-kit/parcel-helpdesk/internal/sla"
	"github.com/spec-kit/parcel-helpdesk/internal/storage"
	apperrors "github.com/spec-kit/parcel-helpdesk/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store         repository.Store
	clock         sla.Clock
	policies      domain.PolicyTable
	images        storage.ImageStore
	maxImageBytes int64
	sanitizer     *bluemonday.Policy
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store         repository.Store
	Clock         sla.Clock
	Policies      domain.PolicyTable
	Images        storage.ImageStore
	MaxImageBytes int64
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	CustomerID       string
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	Channel          string
	IssueType        string
	IssueTypeOther   string
	Department       string
	TrackingNo       string
	ZoneID           string
	RecipientName    string
	RecipientPhone   string
	RecipientAddress string
	Description      string
	SalesforceID     string
}

// TicketUpdateInput describes a partial update. Nil fields are untouched.
type TicketUpdateInput struct {
	Status     *string
	Priority   *string
	Department *string
	AssignedTo *string
	ChangedBy  string
	ResolvedBy string
	ClosedBy   string
	Note       string
	// FromEndUser marks a resolution confirmed by the customer. resolvedBy
	// then defaults to the customer's name.
	FromEndUser bool
}

// TicketListFilter describes list query parameters.
type TicketListFilter struct {
	Statuses   []string
	Priorities []string
	Department string
	CustomerID string
	Search     string
	Limit      int
	Offset     int
}

// NoteInput is a staff comment.
type NoteInput struct {
	Content   string
	CreatedBy string
}

// ReportInput is an end-user problem report.
type ReportInput struct {
	Content   string
	CreatedBy string
	Images    []storage.Image
}

// SLASnapshot is the live SLA view of a ticket.
type SLASnapshot struct {
	Status    domain.SLAStatus
	Remaining sla.RemainingTime
}

// TicketDetail is a ticket with everything shown on its page.
type TicketDetail struct {
	Ticket   domain.Ticket
	Customer *domain.Customer
	Notes    []domain.Note
	History  []domain.StatusHistory
	SLA      SLASnapshot
}

// TicketSummary is one row of a ticket list.
type TicketSummary struct {
	Ticket   domain.Ticket
	Customer *domain.Customer
	SLA      SLASnapshot
}

// ReportResult is returned after a problem report.
type ReportResult struct {
	Note   domain.Note
	Ticket domain.Ticket
	SLA    SLASnapshot
}

// DashboardStats counts tickets per status.
type DashboardStats struct {
	Total      int
	New        int
	InProgress int
	Pending    int
	Resolved   int
	Closed     int
	Open       int
	// CreatedToday counts tickets created since local midnight.
	CreatedToday int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = sla.SystemClock{}
	}
	policies := deps.Policies
	if policies == nil {
		policies = domain.DefaultPolicies
	}
	return &TicketService{
		store:         deps.Store,
		clock:         clock,
		policies:      policies,
		images:        deps.Images,
		maxImageBytes: deps.MaxImageBytes,
		sanitizer:     bluemonday.StrictPolicy(),
		dispatcher:    deps.Dispatcher,
		logger:        logger,
	}
}

// CreateTicket validates input, resolves the customer, numbers the ticket and
// fixes its SLA deadline.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*TicketDetail, error) {
	issueType, dept, err := s.validateCreate(&input)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var (
		ticket   *domain.Ticket
		customer *domain.Customer
		notes    []domain.Note
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		customer, err = s.resolveCustomer(ctx, repos.Customers, input, now)
		if err != nil {
			return err
		}

		if err := repos.Tickets.LockDailySequence(ctx, now); err != nil {
			return fmt.Errorf("lock daily sequence: %w", err)
		}
		// Continue from the highest surviving number; a count would collide
		// once a ticket from today is deleted.
		seq, err := repos.Tickets.MaxDailySequence(ctx, now)
		if err != nil {
			return fmt.Errorf("read daily sequence: %w", err)
		}

		ticket = &domain.Ticket{
			ID:               uuid.NewString(),
			TicketNo:         domain.FormatTicketNo(now, seq+1),
			CustomerID:       customer.ID,
			Channel:          firstNonEmpty(input.Channel, domain.DefaultChannel),
			IssueType:        issueType,
			Priority:         s.policies.PriorityFor(issueType),
			Status:           domain.TicketStatusNew,
			Department:       dept,
			TrackingNo:       input.TrackingNo,
			ZoneID:           input.ZoneID,
			RecipientName:    input.RecipientName,
			RecipientPhone:   input.RecipientPhone,
			RecipientAddress: input.RecipientAddress,
			Description:      input.Description,
			SLAHours:         s.policies.SLAHoursFor(issueType),
			SLADeadline:      sla.ComputeDeadline(now, issueType, s.policies),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if issueType == domain.IssueOther {
			ticket.IssueTypeOther = input.IssueTypeOther
		}
		if input.SalesforceID != "" {
			ticket.SalesforceID = &input.SalesforceID
		}
		ticket.SLAStatus = sla.ClassifyTicket(ticket, now)

		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return fmt.Errorf("create ticket: %w", err)
		}

		if dept == nil {
			note := domain.Note{
				TicketID:  ticket.ID,
				Content:   noteSelectDepartment,
				CreatedBy: domain.ActorSystem,
				CreatedAt: now,
			}
			if err := repos.Notes.Append(ctx, &note); err != nil {
				return fmt.Errorf("append note: %w", err)
			}
			notes = append(notes, note)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_no", ticket.TicketNo),
		zap.String("issue_type", string(ticket.IssueType)))

	s.publishEvent(ctx, now, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		TicketNo: ticket.TicketNo,
		Actor:    domain.ActorStaff,
		Payload: events.TicketCreatedPayload{
			IssueType:  ticket.IssueType,
			Priority:   ticket.Priority,
			Department: ticket.Department,
			CustomerID: ticket.CustomerID,
			Deadline:   ticket.SLADeadline,
		},
	})
	if ticket.Department != nil {
		s.publishEvent(ctx, now, events.Event{
			Type:     events.EventTicketRouted,
			TicketID: ticket.ID,
			TicketNo: ticket.TicketNo,
			Actor:    domain.ActorStaff,
			Payload:  events.TicketRoutedPayload{Department: *ticket.Department},
		})
	}

	return &TicketDetail{
		Ticket:   *ticket,
		Customer: customer,
		Notes:    notes,
		History:  []domain.StatusHistory{},
		SLA:      s.snapshot(ticket, now),
	}, nil
}

// GetTicket returns the ticket with its customer, notes, history and live SLA.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*TicketDetail, error) {
	repos := s.store.Repos()
	ticket, err := repos.Tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "ticket", id)
	}
	customer, err := repos.Customers.GetByID(ctx, ticket.CustomerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	notes, err := repos.Notes.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := repos.History.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{
		Ticket:   *ticket,
		Customer: customer,
		Notes:    notes,
		History:  history,
		SLA:      s.snapshot(ticket, s.clock.Now()),
	}, nil
}

// ListTickets returns tickets matching filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]TicketSummary, error) {
	repoFilter := repository.TicketFilter{
		Search: strings.TrimSpace(filter.Search),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, raw := range filter.Statuses {
		status, err := domain.ParseTicketStatus(raw)
		if err != nil {
			return nil, apperrors.NewInvalidArgument("status", err.Error())
		}
		repoFilter.Statuses = append(repoFilter.Statuses, status)
	}
	for _, raw := range filter.Priorities {
		priority, err := domain.ParseTicketPriority(raw)
		if err != nil {
			return nil, apperrors.NewInvalidArgument("priority", err.Error())
		}
		repoFilter.Priorities = append(repoFilter.Priorities, priority)
	}
	if filter.Department != "" {
		dept, err := domain.ParseDepartment(filter.Department)
		if err != nil {
			return nil, apperrors.NewInvalidArgument("department", err.Error())
		}
		repoFilter.Department = &dept
	}
	if filter.CustomerID != "" {
		repoFilter.CustomerID = &filter.CustomerID
	}

	repos := s.store.Repos()
	tickets, err := repos.Tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.CustomerID)
	}
	customers, err := repos.Customers.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result := make([]TicketSummary, 0, len(tickets))
	for i := range tickets {
		summary := TicketSummary{Ticket: tickets[i], SLA: s.snapshot(&tickets[i], now)}
		if c, ok := customers[tickets[i].CustomerID]; ok {
			summary.Customer = &c
		}
		result = append(result, summary)
	}
	return result, nil
}

// UpdateTicket applies a partial update under the ticket's row lock and
// publishes the edges it crossed once the transaction commits.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	change, err := parseUpdate(input)
	if err != nil {
		return nil, err
	}

	var plan *changePlan
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Tickets.GetForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err, "ticket", id)
		}
		if input.FromEndUser && change.ResolvedBy == "" {
			if customer, err := repos.Customers.GetByID(ctx, current.CustomerID); err == nil {
				change.ResolvedBy = customer.Name
			}
		}

		plan, err = planChange(current, change, s.clock.Now())
		if err != nil {
			return err
		}
		return s.persistPlan(ctx, repos, plan)
	})
	if err != nil {
		return nil, err
	}

	s.publishPlan(ctx, plan, change.Actor)
	return plan.Ticket, nil
}

// AddNote appends a staff comment.
func (s *TicketService) AddNote(ctx context.Context, id string, input NoteInput) (*domain.Note, error) {
	content := s.cleanText(input.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"content": "กรุณาระบุเนื้อหาบันทึก"})
	}

	note := &domain.Note{
		TicketID:  id,
		Content:   content,
		CreatedBy: firstNonEmpty(s.cleanText(input.CreatedBy), domain.ActorStaff),
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Tickets.GetForUpdate(ctx, id); err != nil {
			return mapNotFound(err, "ticket", id)
		}
		note.CreatedAt = s.clock.Now()
		return repos.Notes.Append(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ReportProblem records an end-user report. An open ticket that is already
// routed moves to PENDING; otherwise only the note is added.
func (s *TicketService) ReportProblem(ctx context.Context, id string, input ReportInput) (*ReportResult, error) {
	content := s.cleanText(input.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"content": "กรุณากรอกรายละเอียดปัญหา"})
	}
	for i, img := range input.Images {
		if err := storage.Validate(img, s.maxImageBytes); err != nil {
			return nil, apperrors.NewValidationError("validation failed", map[string]any{fmt.Sprintf("images[%d]", i): err.Error()})
		}
	}
	if _, err := s.store.Repos().Tickets.GetByID(ctx, id); err != nil {
		return nil, mapNotFound(err, "ticket", id)
	}

	urls, err := s.storeImages(ctx, id, input.Images)
	if err != nil {
		return nil, err
	}

	note := domain.Note{
		TicketID:      id,
		Content:       content,
		CreatedBy:     firstNonEmpty(s.cleanText(input.CreatedBy), domain.ActorEndUserAuthor),
		IsFromEndUser: true,
		Images:        urls,
	}
	var plan *changePlan
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Tickets.GetForUpdate(ctx, id)
		if err != nil {
			return mapNotFound(err, "ticket", id)
		}
		now := s.clock.Now()
		plan = planReport(current, now)
		if plan.StatusChanged {
			if err := s.persistPlan(ctx, repos, plan); err != nil {
				return err
			}
		}
		note.CreatedAt = now
		return repos.Notes.Append(ctx, &note)
	})
	if err != nil {
		s.discardImages(urls)
		return nil, err
	}

	s.publishEvent(ctx, plan.At, events.Event{
		Type:     events.EventProblemReported,
		TicketID: id,
		TicketNo: plan.Ticket.TicketNo,
		Actor:    note.CreatedBy,
		Payload: events.ProblemReportedPayload{
			NoteID:      note.ID,
			ImageCount:  len(urls),
			MovedToWait: plan.StatusChanged,
		},
	})
	s.publishPlan(ctx, plan, domain.ActorSystem)
	return &ReportResult{
		Note:   note,
		Ticket: *plan.Ticket,
		SLA:    s.snapshot(plan.Ticket, plan.At),
	}, nil
}

// DeleteTicket removes a ticket with its notes and history.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Tickets.GetForUpdate(ctx, id); err != nil {
			return mapNotFound(err, "ticket", id)
		}
		return repos.Tickets.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", id))
	return nil
}

// Stats counts tickets per status.
func (s *TicketService) Stats(ctx context.Context) (*DashboardStats, error) {
	tickets := s.store.Repos().Tickets
	counts, err := tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	today, err := tickets.CountCreatedSince(ctx, sla.StartOfDay(s.clock.Now()))
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{
		New:        counts[domain.TicketStatusNew],
		InProgress: counts[domain.TicketStatusInProgress],
		Pending:    counts[domain.TicketStatusPending],
		Resolved:   counts[domain.TicketStatusResolved],
		Closed:     counts[domain.TicketStatusClosed],

		CreatedToday: today,
	}
	stats.Open = stats.New + stats.InProgress + stats.Pending
	stats.Total = stats.Open + stats.Resolved + stats.Closed
	return stats, nil
}

func (s *TicketService) validateCreate(input *TicketCreateInput) (domain.IssueType, *domain.Department, error) {
	input.CustomerID = strings.TrimSpace(input.CustomerID)
	input.CustomerName = s.cleanText(input.CustomerName)
	input.CustomerPhone = domain.NormalizePhone(input.CustomerPhone)
	input.CustomerEmail = strings.TrimSpace(input.CustomerEmail)
	input.Channel = strings.TrimSpace(input.Channel)
	input.IssueTypeOther = s.cleanText(input.IssueTypeOther)
	input.TrackingNo = strings.TrimSpace(input.TrackingNo)
	input.ZoneID = strings.TrimSpace(input.ZoneID)
	input.RecipientName = s.cleanText(input.RecipientName)
	input.RecipientPhone = strings.TrimSpace(input.RecipientPhone)
	input.RecipientAddress = s.cleanText(input.RecipientAddress)
	input.Description = s.cleanText(input.Description)
	input.SalesforceID = strings.TrimSpace(input.SalesforceID)

	details := map[string]any{}
	if input.CustomerID == "" {
		if input.CustomerName == "" {
			details["customerName"] = "กรุณาระบุชื่อลูกค้า"
		}
		switch {
		case input.CustomerPhone == "":
			details["customerPhone"] = "กรุณาระบุเบอร์โทรศัพท์"
		case !domain.ValidPhone(input.CustomerPhone):
			details["customerPhone"] = "รูปแบบเบอร์โทรศัพท์ไม่ถูกต้อง (ต้องเป็น 10 หลัก เช่น 0812345678)"
		}
		if input.CustomerEmail != "" && !domain.ValidEmail(input.CustomerEmail) {
			details["customerEmail"] = "รูปแบบอีเมลไม่ถูกต้อง"
		}
	}
	if input.Description == "" {
		details["description"] = "กรุณาระบุรายละเอียด"
	}
	if strings.TrimSpace(input.IssueType) == "" {
		details["issueType"] = "กรุณาเลือกประเภทปัญหา"
	}
	if input.RecipientName == "" {
		details["recipientName"] = "กรุณาระบุชื่อผู้รับ"
	}
	if input.RecipientPhone == "" {
		details["recipientPhone"] = "กรุณาระบุเบอร์โทรศัพท์ผู้รับ"
	}
	if input.RecipientAddress == "" {
		details["recipientAddress"] = "กรุณาระบุที่อยู่ผู้รับ"
	}
	if len(details) > 0 {
		return "", nil, apperrors.NewValidationError("validation failed", details)
	}

	issueType, err := s.policies.Parse(input.IssueType)
	if err != nil {
		return "", nil, apperrors.NewInvalidArgument("issueType", err.Error())
	}
	if issueType == domain.IssueOther && input.IssueTypeOther == "" {
		return "", nil, apperrors.NewInvalidArgument("issueTypeOther", "issueTypeOther is required when issueType is OTHER")
	}

	var dept *domain.Department
	if strings.TrimSpace(input.Department) != "" {
		parsed, err := domain.ParseDepartment(input.Department)
		if err != nil {
			return "", nil, apperrors.NewInvalidArgument("department", err.Error())
		}
		dept = &parsed
	}
	return issueType, dept, nil
}

func (s *TicketService) resolveCustomer(ctx context.Context, customers repository.CustomerRepository, input TicketCreateInput, now time.Time) (*domain.Customer, error) {
	if input.CustomerID != "" {
		customer, err := customers.GetByID(ctx, input.CustomerID)
		if err != nil {
			return nil, mapNotFound(err, "customer", input.CustomerID)
		}
		return customer, nil
	}

	customer, err := customers.GetByPhone(ctx, input.CustomerPhone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}

	customer = &domain.Customer{
		ID:        uuid.NewString(),
		Name:      input.CustomerName,
		Phone:     input.CustomerPhone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.CustomerEmail != "" {
		customer.Email = &input.CustomerEmail
	}
	if err := customers.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return customer, nil
}

func parseUpdate(input TicketUpdateInput) (ticketChange, error) {
	change := ticketChange{
		AssignedTo: input.AssignedTo,
		Actor:      firstNonEmpty(input.ChangedBy, domain.ActorStaff),
		ResolvedBy: input.ResolvedBy,
		ClosedBy:   input.ClosedBy,
		Reason:     input.Note,
	}
	if input.Status != nil {
		status, err := domain.ParseTicketStatus(*input.Status)
		if err != nil {
			return change, apperrors.NewInvalidArgument("status", err.Error())
		}
		change.Status = &status
	}
	if input.Priority != nil {
		priority, err := domain.ParseTicketPriority(*input.Priority)
		if err != nil {
			return change, apperrors.NewInvalidArgument("priority", err.Error())
		}
		change.Priority = &priority
	}
	if input.Department != nil {
		dept, err := domain.ParseDepartment(*input.Department)
		if err != nil {
			return change, apperrors.NewInvalidArgument("department", err.Error())
		}
		change.Department = &dept
	}
	return change, nil
}

func (s *TicketService) persistPlan(ctx context.Context, repos repository.Repositories, plan *changePlan) error {
	if err := repos.Tickets.Update(ctx, plan.Ticket); err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	for i := range plan.History {
		if err := repos.History.Append(ctx, &plan.History[i]); err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
	}
	for i := range plan.Notes {
		if err := repos.Notes.Append(ctx, &plan.Notes[i]); err != nil {
			return fmt.Errorf("append note: %w", err)
		}
	}
	return nil
}

func (s *TicketService) publishPlan(ctx context.Context, plan *changePlan, actor string) {
	t := plan.Ticket
	if plan.StatusChanged {
		s.publishEvent(ctx, plan.At, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: t.ID,
			TicketNo: t.TicketNo,
			Actor:    actor,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: plan.FromStatus,
				NewStatus: plan.ToStatus,
			},
		})
	}
	if plan.Routed && t.Department != nil {
		s.publishEvent(ctx, plan.At, events.Event{
			Type:     events.EventTicketRouted,
			TicketID: t.ID,
			TicketNo: t.TicketNo,
			Actor:    actor,
			Payload:  events.TicketRoutedPayload{Department: *t.Department},
		})
	}
	if plan.Assigned && t.AssignedTo != nil {
		s.publishEvent(ctx, plan.At, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: t.ID,
			TicketNo: t.TicketNo,
			Actor:    actor,
			Payload:  events.TicketAssignedPayload{AssignedTo: *t.AssignedTo},
		})
	}
	if plan.Resolved && t.ResolvedBy != nil {
		s.publishEvent(ctx, plan.At, events.Event{
			Type:     events.EventTicketResolved,
			TicketID: t.ID,
			TicketNo: t.TicketNo,
			Actor:    actor,
			Payload:  events.TicketResolvedPayload{ResolvedBy: *t.ResolvedBy},
		})
	}
}

func (s *TicketService) storeImages(ctx context.Context, ticketID string, images []storage.Image) ([]string, error) {
	urls := []string{}
	if len(images) == 0 {
		return urls, nil
	}
	if s.images == nil {
		return nil, apperrors.NewInvalidArgument("images", "image uploads are not configured")
	}
	for _, img := range images {
		url, err := s.images.Put(ctx, ticketID, img)
		if err != nil {
			s.discardImages(urls)
			return nil, fmt.Errorf("store image: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *TicketService) discardImages(urls []string) {
	if s.images == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, url := range urls {
		if err := s.images.Delete(ctx, url); err != nil {
			s.logger.Warn("discard uploaded image", zap.String("url", url), zap.Error(err))
		}
	}
}

func (s *TicketService) snapshot(t *domain.Ticket, now time.Time) SLASnapshot {
	return SLASnapshot{
		Status:    sla.ClassifyTicket(t, now),
		Remaining: sla.Remaining(now, t.SLADeadline),
	}
}

// cleanText strips markup from free text typed by staff or customers.
func (s *TicketService) cleanText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(raw)))
}

func (s *TicketService) publishEvent(ctx context.Context, at time.Time, event events.Event) {
	publishEvent(ctx, s.dispatcher, at, event)
}

// publishEvent stamps the event with the time of the change it reports.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, at time.Time, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Timestamp = at
	_ = dispatcher.Publish(ctx, event)
}

func mapNotFound(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}
