package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead statuses. Claim moves a lead from new to contacted; the three
// remaining states are terminal.
const (
	StatusNew         = "new"
	StatusContacted   = "contacted"
	StatusClosed      = "closed"
	StatusLost        = "lost"
	StatusUnreachable = "unreachable"
)

// Lead represents one prospective customer interaction. The numeric gorm.Model
// ID doubles as the legacy row ordinal; LeadUID is the canonical identifier.
type Lead struct {
	gorm.Model
	LeadUID string `gorm:"not null;uniqueIndex" json:"lead_uid"`

	// Dedup key: at most one lead per (email, source) pair, enforced by the
	// composite unique index rather than a check-then-insert.
	Email  string `gorm:"not null;uniqueIndex:idx_leads_email_source" json:"email"`
	Source string `gorm:"not null;default:unknown;uniqueIndex:idx_leads_email_source" json:"source"`

	Campaign string `json:"campaign"`
	Company  string `json:"company"`
	Phone    string `json:"phone"`

	Status  string `gorm:"not null;default:new;index" json:"status"`
	OwnerID *uint  `gorm:"index" json:"owner_id"`

	// Version backs the optimistic lock: starts at 1, incremented by exactly 1
	// on every successful status transition.
	Version int `gorm:"not null;default:1" json:"version"`

	ClickedAt     time.Time  `json:"clicked_at"`
	ContactedAt   *time.Time `json:"contacted_at"`
	ClosedAt      *time.Time `json:"closed_at"`
	LostAt        *time.Time `json:"lost_at"`
	UnreachableAt *time.Time `json:"unreachable_at"`

	// Enrichment
	Industry     string  `json:"industry"`
	Confidence   int     `gorm:"default:0" json:"confidence"`
	TalkingPoint string  `gorm:"type:text" json:"talking_point"`

	// Grounding fields from the DBD registry lookup; absence is normal.
	RegistrationID *string `json:"registration_id"`
	SectorCode     *string `json:"sector_code"`
	Province       *string `json:"province"`
	Address        *string `gorm:"type:text" json:"address"`

	// Relations
	Owner   *SalesRep       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	History []StatusHistory `gorm:"foreignKey:LeadID" json:"history,omitempty"`
}

// StatusHistory is the append-only audit trail: one row per transition,
// never one for creation.
type StatusHistory struct {
	gorm.Model
	LeadID     uint   `gorm:"not null;index" json:"lead_id"`
	FromStatus string `gorm:"not null" json:"from_status"`
	ToStatus   string `gorm:"not null" json:"to_status"`
	Actor      string `gorm:"not null" json:"actor"`
}

// LeadEvent is the raw webhook event log (click, open, delivered) backing
// dashboard stats.
type LeadEvent struct {
	gorm.Model
	EventType  string    `gorm:"not null;index" json:"event_type"`
	Email      string    `gorm:"not null;index" json:"email"`
	Source     string    `json:"source"`
	Campaign   string    `json:"campaign"`
	OccurredAt time.Time `gorm:"not null" json:"occurred_at"`
}

// TerminalStatus reports whether no further transition is defined out of s.
func TerminalStatus(s string) bool {
	switch s {
	case StatusClosed, StatusLost, StatusUnreachable:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the five lead statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusContacted, StatusClosed, StatusLost, StatusUnreachable:
		return true
	}
	return false
}

// CanTransition encodes the state machine:
// new → contacted → closed | lost | unreachable.
func CanTransition(from, to string) bool {
	switch from {
	case StatusNew:
		return to == StatusContacted
	case StatusContacted:
		return to == StatusClosed || to == StatusLost || to == StatusUnreachable
	}
	return false
}
