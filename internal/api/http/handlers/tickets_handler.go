package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parcel-helpdesk/internal/api/dto"
	"github.com/spec-kit/parcel-helpdesk/internal/domain"
	"github.com/spec-kit/parcel-helpdesk/internal/service"
	"github.com/spec-kit/parcel-helpdesk/internal/storage"
	apperrors "github.com/spec-kit/parcel-helpdesk/pkg/util"
)

// TicketsHandler serves the ticket desk endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	detail, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		CustomerID:       req.CustomerID,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		Channel:          req.Channel,
		IssueType:        req.IssueType,
		IssueTypeOther:   req.IssueTypeOther,
		Department:       req.Department,
		TrackingNo:       req.TrackingNo,
		ZoneID:           req.ZoneID,
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		RecipientAddress: req.RecipientAddress,
		Description:      req.Description,
		SalesforceID:     req.SalesforceID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ok(ticketDetail(detail)))
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListTickets(c.UserContext(), service.TicketListFilter{
		Statuses:   splitQuery(c.Query("status")),
		Priorities: splitQuery(c.Query("priority")),
		Department: c.Query("department"),
		CustomerID: c.Query("customerId"),
		Search:     c.Query("search"),
		Limit:      parseInt(c.Query("limit"), 50),
		Offset:     parseOffset(c.Query("offset")),
	})
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i].Ticket, tickets[i].Customer, tickets[i].SLA))
	}
	return c.JSON(ok(items))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ok(ticketDetail(detail)))
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if _, err := h.service.UpdateTicket(c.UserContext(), c.Params("id"), service.TicketUpdateInput{
		Status:      req.Status,
		Priority:    req.Priority,
		Department:  req.Department,
		AssignedTo:  req.AssignedTo,
		ChangedBy:   req.ChangedBy,
		ResolvedBy:  req.ResolvedBy,
		ClosedBy:    req.ClosedBy,
		Note:        req.Note,
		FromEndUser: req.IsFromEndUser,
	}); err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ok(ticketDetail(detail)))
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.AddNote(c.UserContext(), c.Params("id"), service.NoteInput{
		Content:   req.Content,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ok(noteResponse(note)))
}

// ReportProblem POST /tickets/:id/reports. Accepts multipart with "content",
// optional "createdBy" and any number of "images" files, or a JSON note body.
func (h *TicketsHandler) ReportProblem(c *fiber.Ctx) error {
	input := service.ReportInput{}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperrors.NewValidationError("invalid multipart payload", nil)
		}
		input.Content = firstValue(form.Value["content"])
		input.CreatedBy = firstValue(form.Value["createdBy"])
		images, closeAll, err := openImages(form.File["images"])
		defer closeAll()
		if err != nil {
			return err
		}
		input.Images = images
	} else {
		var req dto.CreateNoteRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		input.Content = req.Content
		input.CreatedBy = req.CreatedBy
	}

	result, err := h.service.ReportProblem(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ok(dto.ReportResponse{
		Note:   noteResponse(&result.Note),
		Ticket: ticketResponse(&result.Ticket, nil, result.SLA),
	}))
}

// SearchCustomers GET /customers/search.
func (h *TicketsHandler) SearchCustomers(c *fiber.Ctx) error {
	matches, err := h.service.SearchCustomers(c.UserContext(), service.CustomerSearchInput{
		Phone: c.Query("phone"),
		Name:  c.Query("name"),
		Email: c.Query("email"),
		Limit: parseInt(c.Query("limit"), 20),
	})
	if err != nil {
		return err
	}
	items := make([]dto.CustomerMatchResponse, 0, len(matches))
	for i := range matches {
		open := make([]dto.TicketResponse, 0, len(matches[i].OpenTickets))
		for j := range matches[i].OpenTickets {
			t := &matches[i].OpenTickets[j]
			open = append(open, ticketResponse(t, nil, service.SLASnapshot{Status: t.SLAStatus}))
		}
		items = append(items, dto.CustomerMatchResponse{
			CustomerResponse: customerResponse(&matches[i].Customer),
			OpenTicketCount:  len(open),
			OpenTickets:      open,
		})
	}
	return c.JSON(ok(items))
}

// Stats GET /dashboard/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(ok(dto.DashboardStatsResponse{
		Total:      stats.Total,
		New:        stats.New,
		InProgress: stats.InProgress,
		Pending:    stats.Pending,
		Resolved:   stats.Resolved,
		Closed:     stats.Closed,
		Open:       stats.Open,

		CreatedToday: stats.CreatedToday,
	}))
}

func ok(data any) fiber.Map {
	return fiber.Map{"success": true, "data": data}
}

func openImages(files []*multipart.FileHeader) ([]storage.Image, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	images := make([]storage.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, apperrors.NewValidationError("unreadable image", map[string]any{"images": fh.Filename})
		}
		closers = append(closers, f)
		images = append(images, storage.Image{
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return images, closeAll, nil
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func splitQuery(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseOffset(val string) int {
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	notes := make([]dto.NoteResponse, 0, len(detail.Notes))
	for i := range detail.Notes {
		notes = append(notes, noteResponse(&detail.Notes[i]))
	}
	history := make([]dto.HistoryResponse, 0, len(detail.History))
	for _, entry := range detail.History {
		history = append(history, dto.HistoryResponse{
			ID:         entry.ID,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			ChangedBy:  entry.ChangedBy,
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return dto.TicketDetailResponse{
		TicketResponse: ticketResponse(&detail.Ticket, detail.Customer, detail.SLA),
		Notes:          notes,
		History:        history,
	}
}

func ticketResponse(t *domain.Ticket, customer *domain.Customer, snapshot service.SLASnapshot) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:               t.ID,
		TicketNo:         t.TicketNo,
		Channel:          t.Channel,
		IssueType:        t.IssueType,
		IssueTypeOther:   t.IssueTypeOther,
		Priority:         t.Priority,
		Status:           t.Status,
		Department:       t.Department,
		AssignedTo:       t.AssignedTo,
		TrackingNo:       t.TrackingNo,
		ZoneID:           t.ZoneID,
		RecipientName:    t.RecipientName,
		RecipientPhone:   t.RecipientPhone,
		RecipientAddress: t.RecipientAddress,
		Description:      t.Description,
		SalesforceID:     t.SalesforceID,
		SLA: dto.SLAResponse{
			Status:   snapshot.Status,
			Deadline: t.SLADeadline,
			Hours:    t.SLAHours,
			Remaining: dto.RemainingResponse{
				Hours:       snapshot.Remaining.Hours,
				IsOverdue:   snapshot.Remaining.IsOverdue,
				DisplayText: snapshot.Remaining.DisplayText,
			},
		},
		ResolvedBy: t.ResolvedBy,
		ResolvedAt: t.ResolvedAt,
		ClosedBy:   t.ClosedBy,
		ClosedAt:   t.ClosedAt,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if customer != nil {
		c := customerResponse(customer)
		resp.Customer = &c
	}
	return resp
}

func customerResponse(c *domain.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

func noteResponse(n *domain.Note) dto.NoteResponse {
	images := n.Images
	if images == nil {
		images = []string{}
	}
	return dto.NoteResponse{
		ID:            n.ID,
		Content:       n.Content,
		CreatedBy:     n.CreatedBy,
		IsFromEndUser: n.IsFromEndUser,
		Images:        images,
		CreatedAt:     n.CreatedAt,
	}
}
