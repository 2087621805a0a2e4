package domain

import (
	"fmt"
	"strings"
)

// Department is the fixed organisational unit a ticket is routed to.
type Department string

const (
	DepartmentDB1  Department = "DB1"
	DepartmentDB2  Department = "DB2"
	DepartmentDB3  Department = "DB3"
	DepartmentDB4  Department = "DB4"
	DepartmentDB5  Department = "DB5"
	DepartmentDB6  Department = "DB6"
	DepartmentTest Department = "TEST"
)

var departmentLabels = map[Department]string{
	DepartmentDB1:  "D1",
	DepartmentDB2:  "D2",
	DepartmentDB3:  "D3",
	DepartmentDB4:  "D4",
	DepartmentDB5:  "นำจ่ายรถยนต์",
	DepartmentDB6:  "บป",
	DepartmentTest: "ทดสอบ",
}

// Departments lists every routable department.
var Departments = []Department{
	DepartmentDB1, DepartmentDB2, DepartmentDB3, DepartmentDB4,
	DepartmentDB5, DepartmentDB6, DepartmentTest,
}

// ParseDepartment validates a raw department code.
func ParseDepartment(raw string) (Department, error) {
	candidate := Department(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := departmentLabels[candidate]; !ok {
		return "", fmt.Errorf("unknown department %q", raw)
	}
	return candidate, nil
}

// Routing resolves notification channels for departments.
type Routing struct {
	Channels       map[Department]string
	DefaultChannel string
}

// ChannelFor returns the department channel, or the default channel when the
// department has none. The bool is false when neither is configured.
func (r Routing) ChannelFor(dept *Department) (string, bool) {
	if dept != nil {
		if ch := strings.TrimSpace(r.Channels[*dept]); ch != "" {
			return ch, true
		}
	}
	if ch := strings.TrimSpace(r.DefaultChannel); ch != "" {
		return ch, true
	}
	return "", false
}

// LabelFor returns the display name of a department.
func (r Routing) LabelFor(dept Department) string {
	if label, ok := departmentLabels[dept]; ok {
		return label
	}
	return string(dept)
}
