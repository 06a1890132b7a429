package domain

import "time"

// Message is one entry in an application-scoped thread. The log is
// append-only: no edits and no physical deletes. Each participant can hide
// the thread's history for themselves only; the per-side flags mirror that
// soft tombstone without touching the counterpart's view.
type Message struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ApplicationID uint64     `gorm:"column:application_id;index;not null" json:"application_id"`
	SenderID      uint64     `gorm:"column:sender_id;not null" json:"sender_id"`
	Body          string     `gorm:"column:body;type:text;not null" json:"body"`
	IsRead        bool       `gorm:"column:is_read;default:false" json:"is_read"`
	ReadAt        *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`

	HiddenForVolunteer bool `gorm:"column:hidden_for_volunteer;default:false" json:"-"`
	HiddenForNGO       bool `gorm:"column:hidden_for_ngo;default:false" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// SendMessageRequest message submission payload
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}
