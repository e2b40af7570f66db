package models

import "gorm.io/gorm"

// DeadLetter is the database fallback for failed notifications when Redis is
// unavailable. Entries are replayed by the dead-letter worker and marked
// delivered instead of being deleted.
type DeadLetter struct {
	gorm.Model
	Kind      string `gorm:"not null;index" json:"kind"` // notify, reply
	Payload   string `gorm:"type:text;not null" json:"payload"`
	Attempts  int    `gorm:"default:0" json:"attempts"`
	Delivered bool   `gorm:"default:false;index" json:"delivered"`
	LastError string `gorm:"type:text" json:"last_error"`
}
