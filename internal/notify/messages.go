package notify

import "fmt"

// TicketCard is the ticket data rendered into chat messages.
type TicketCard struct {
	TicketNo        string
	CustomerName    string
	CustomerPhone   string
	IssueLabel      string
	Priority        string
	Description     string
	DepartmentLabel string
	AssignedTo      string
	ResolvedBy      string
	Remaining       string
	URL             string
}

// Message is a rendered structured message.
type Message struct {
	Summary string
	Payload map[string]any
}

var priorityLabels = map[string]string{
	"URGENT": "🔴 เร่งด่วน",
	"HIGH":   "🟠 สูง",
	"MEDIUM": "🟡 ปานกลาง",
	"LOW":    "🟢 ต่ำ",
}

// DepartmentRouted announces a ticket routed to a department for the first time.
func DepartmentRouted(c TicketCard) Message {
	return Message{
		Summary: "🔔 Ticket ใหม่: " + c.TicketNo,
		Payload: bubble("#3B82F6", "🔔 Ticket ใหม่", c.TicketNo, []row{
			{"แผนก", c.DepartmentLabel},
			{"ประเภท", c.IssueLabel},
			{"ความสำคัญ", priorityLabel(c.Priority)},
			{"ลูกค้า", c.CustomerName},
			{"โทร", c.CustomerPhone},
			{"รายละเอียด", truncate(c.Description, 120)},
		}, c.URL),
	}
}

// Assigned announces the first staff assignee.
func Assigned(c TicketCard) Message {
	return Message{
		Summary: "👤 มอบหมาย Ticket: " + c.TicketNo,
		Payload: bubble("#8B5CF6", "👤 มอบหมายงาน", c.TicketNo, []row{
			{"ผู้รับผิดชอบ", c.AssignedTo},
			{"แผนก", c.DepartmentLabel},
			{"ประเภท", c.IssueLabel},
			{"ความสำคัญ", priorityLabel(c.Priority)},
			{"ลูกค้า", c.CustomerName},
		}, c.URL),
	}
}

// Resolved announces the first resolution of a ticket.
func Resolved(c TicketCard) Message {
	return Message{
		Summary: "✅ แก้ไขแล้ว: " + c.TicketNo,
		Payload: bubble("#10B981", "✅ แก้ไขเรียบร้อย", c.TicketNo, []row{
			{"แก้ไขโดย", c.ResolvedBy},
			{"แผนก", c.DepartmentLabel},
			{"ประเภท", c.IssueLabel},
			{"ลูกค้า", c.CustomerName},
		}, c.URL),
	}
}

// SLAWarning warns that a ticket is at risk of, or past, its deadline.
func SLAWarning(c TicketCard) Message {
	return Message{
		Summary: "⚠️ เตือน SLA: " + c.TicketNo,
		Payload: bubble("#EF4444", "⚠️ เตือน SLA", c.TicketNo, []row{
			{"เหลือเวลา", c.Remaining},
			{"แผนก", c.DepartmentLabel},
			{"ความสำคัญ", priorityLabel(c.Priority)},
			{"ประเภท", c.IssueLabel},
			{"ลูกค้า", c.CustomerName},
		}, c.URL),
	}
}

type row struct {
	label string
	value string
}

func bubble(color, title, ticketNo string, rows []row, url string) map[string]any {
	contents := make([]any, 0, len(rows))
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		contents = append(contents, map[string]any{
			"type":   "box",
			"layout": "baseline",
			"margin": "sm",
			"contents": []any{
				map[string]any{"type": "text", "text": r.label, "size": "sm", "color": "#6B7280", "flex": 2},
				map[string]any{"type": "text", "text": r.value, "size": "sm", "color": "#111111", "flex": 5, "wrap": true},
			},
		})
	}

	payload := map[string]any{
		"type": "bubble",
		"size": "mega",
		"header": map[string]any{
			"type":            "box",
			"layout":          "vertical",
			"backgroundColor": color,
			"paddingAll":      "20px",
			"contents": []any{
				map[string]any{"type": "text", "text": title, "color": "#ffffff", "size": "xl", "weight": "bold"},
				map[string]any{"type": "text", "text": ticketNo, "color": "#ffffff", "size": "md", "margin": "xs"},
			},
		},
		"body": map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"contents": contents,
		},
	}
	if url != "" {
		payload["footer"] = map[string]any{
			"type":   "box",
			"layout": "vertical",
			"contents": []any{
				map[string]any{
					"type":   "button",
					"style":  "primary",
					"color":  color,
					"action": map[string]any{"type": "uri", "label": "ดูรายละเอียด", "uri": url},
				},
			},
		}
	}
	return payload
}

func priorityLabel(p string) string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return p
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return fmt.Sprintf("%s...", string(r[:max-3]))
}
