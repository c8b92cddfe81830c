// Package contract manages loan contract records and their ownership.
package contract

import (
	"fmt"
	"strings"
	"time"
)

// Contract statuses. "approved" marks contracts accepted but not yet
// disbursed.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusActive   = "active"
	StatusPaid     = "paid"
	StatusDefault  = "default"
)

var validStatuses = map[string]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusActive:   true,
	StatusPaid:     true,
	StatusDefault:  true,
}

// Contract is a loan contract record. Owner is the username of the
// identity that created it; an empty Owner marks a legacy record created
// before ownership tracking existed.
type Contract struct {
	Number         string    `json:"contractNumber"`
	CustomerName   string    `json:"customerName"`
	Amount         int64     `json:"loanAmount"`
	InterestRate   float64   `json:"interestRate"`
	DurationMonths int       `json:"loanDuration"`
	Status         string    `json:"status"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Description    string    `json:"description,omitempty"`
	Owner          string    `json:"username,omitempty"`
	CreatedAt      time.Time `json:"createdDate"`
	UpdatedAt      time.Time `json:"updatedDate"`
}

// Validate checks field constraints on creation.
func (c *Contract) Validate() error {
	if strings.TrimSpace(c.Number) == "" {
		return fmt.Errorf("%w: contract number is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.CustomerName) == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if c.Amount <= 0 {
		return fmt.Errorf("%w: loan amount must be positive", ErrInvalidInput)
	}
	if c.InterestRate < 0 {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidInput)
	}
	if c.DurationMonths <= 0 {
		return fmt.Errorf("%w: loan duration must be positive", ErrInvalidInput)
	}
	if !validStatuses[c.Status] {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, c.Status)
	}
	return nil
}

// Update carries edits to a contract; nil fields are left untouched. The
// contract number and owner are immutable through Update (ownership
// changes go through ReassignOwner).
type Update struct {
	CustomerName   *string  `json:"customerName,omitempty"`
	Amount         *int64   `json:"loanAmount,omitempty"`
	InterestRate   *float64 `json:"interestRate,omitempty"`
	DurationMonths *int     `json:"loanDuration,omitempty"`
	Status         *string  `json:"status,omitempty"`
	Email          *string  `json:"email,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	Description    *string  `json:"description,omitempty"`
}

// FieldChange records one field's before and after values.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff applies upd to c in place and returns the per-field changes,
// keyed by JSON field name. Fields set to their current value produce no
// change entry.
func Diff(c *Contract, upd Update) map[string]FieldChange {
	changes := make(map[string]FieldChange)
	if upd.CustomerName != nil && *upd.CustomerName != c.CustomerName {
		changes["customerName"] = FieldChange{Old: c.CustomerName, New: *upd.CustomerName}
		c.CustomerName = *upd.CustomerName
	}
	if upd.Amount != nil && *upd.Amount != c.Amount {
		changes["loanAmount"] = FieldChange{Old: c.Amount, New: *upd.Amount}
		c.Amount = *upd.Amount
	}
	if upd.InterestRate != nil && *upd.InterestRate != c.InterestRate {
		changes["interestRate"] = FieldChange{Old: c.InterestRate, New: *upd.InterestRate}
		c.InterestRate = *upd.InterestRate
	}
	if upd.DurationMonths != nil && *upd.DurationMonths != c.DurationMonths {
		changes["loanDuration"] = FieldChange{Old: c.DurationMonths, New: *upd.DurationMonths}
		c.DurationMonths = *upd.DurationMonths
	}
	if upd.Status != nil && *upd.Status != c.Status {
		changes["status"] = FieldChange{Old: c.Status, New: *upd.Status}
		c.Status = *upd.Status
	}
	if upd.Email != nil && *upd.Email != c.Email {
		changes["email"] = FieldChange{Old: c.Email, New: *upd.Email}
		c.Email = *upd.Email
	}
	if upd.Phone != nil && *upd.Phone != c.Phone {
		changes["phone"] = FieldChange{Old: c.Phone, New: *upd.Phone}
		c.Phone = *upd.Phone
	}
	if upd.Description != nil && *upd.Description != c.Description {
		changes["description"] = FieldChange{Old: c.Description, New: *upd.Description}
		c.Description = *upd.Description
	}
	return changes
}
