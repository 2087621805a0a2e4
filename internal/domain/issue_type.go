package domain

import (
	"fmt"
	"strings"
)

// IssueType is the category of a reported delivery problem.
type IssueType string

const (
	IssueNewDelivery    IssueType = "NEW_DELIVERY"
	IssueCheckDelivery  IssueType = "CHECK_DELIVERY"
	IssueReturnToSender IssueType = "RETURN_TO_SENDER"
	IssueDamagedParcel  IssueType = "DAMAGED_PARCEL"
	IssueLostParcel     IssueType = "LOST_PARCEL"
	IssueOther          IssueType = "OTHER"
)

// IssuePolicy holds the response budget attached to an issue type.
type IssuePolicy struct {
	SLAHours int
	Priority TicketPriority
	Label    string
}

// PolicyTable maps every issue type to its policy.
type PolicyTable map[IssueType]IssuePolicy

// DefaultPolicies is the policy table used in production.
var DefaultPolicies = PolicyTable{
	IssueNewDelivery:    {SLAHours: 48, Priority: TicketPriorityMedium, Label: "นำจ่ายใหม่"},
	IssueCheckDelivery:  {SLAHours: 24, Priority: TicketPriorityMedium, Label: "ตรวจสอบการนำจ่าย"},
	IssueReturnToSender: {SLAHours: 24, Priority: TicketPriorityMedium, Label: "ร้องเรียนบริการ"},
	IssueDamagedParcel:  {SLAHours: 24, Priority: TicketPriorityHigh, Label: "ขอถอนเงิน"},
	IssueLostParcel:     {SLAHours: 24, Priority: TicketPriorityMedium, Label: "สอบถามข้อมูล"},
	IssueOther:          {SLAHours: 24, Priority: TicketPriorityMedium, Label: "อื่นๆ"},
}

// Parse validates a raw issue type against the table.
func (p PolicyTable) Parse(raw string) (IssueType, error) {
	candidate := IssueType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := p[candidate]; !ok {
		return "", fmt.Errorf("unknown issue type %q", raw)
	}
	return candidate, nil
}

// SLAHoursFor returns the response budget in hours.
func (p PolicyTable) SLAHoursFor(issueType IssueType) int {
	return p[issueType].SLAHours
}

// PriorityFor returns the default priority for the issue type.
func (p PolicyTable) PriorityFor(issueType IssueType) TicketPriority {
	if policy, ok := p[issueType]; ok && policy.Priority != "" {
		return policy.Priority
	}
	return TicketPriorityMedium
}

// LabelFor returns the display label, falling back to the raw code.
func (p PolicyTable) LabelFor(issueType IssueType) string {
	if policy, ok := p[issueType]; ok && policy.Label != "" {
		return policy.Label
	}
	return string(issueType)
}
