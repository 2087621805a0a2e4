package domain

import (
	"regexp"
	"strings"
	"time"
)

// Customer is the person a ticket is filed for. Phone is unique.
type Customer struct {
	ID        string
	Name      string
	Phone     string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	phonePattern = regexp.MustCompile(`^0[0-9]{9}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneNoise   = strings.NewReplacer("-", "", " ", "", "\t", "")
)

// NormalizePhone strips separators typed by staff.
func NormalizePhone(raw string) string {
	return phoneNoise.Replace(strings.TrimSpace(raw))
}

// ValidPhone reports whether a normalized phone is a 10 digit Thai number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidEmail performs a shape check only.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
