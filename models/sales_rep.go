package models

import "gorm.io/gorm"

// Sales-team roles
const (
	RoleRep   = "rep"
	RoleAdmin = "admin"
)

// SalesRep is a member of the sales-team roster, keyed by their
// chat-platform user id.
type SalesRep struct {
	gorm.Model
	LineUserID string `gorm:"not null;uniqueIndex" json:"line_user_id"`
	Name       string `gorm:"not null" json:"name"`
	Role       string `gorm:"not null;default:rep" json:"role"`
	Active     bool   `gorm:"default:true" json:"active"`
}

// IsAdmin reports whether the rep may act on leads owned by others.
func (r *SalesRep) IsAdmin() bool {
	return r.Role == RoleAdmin
}
