package domain

import "time"

// Application statuses
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// ValidApplicationStatus reports whether s is a known application status
func ValidApplicationStatus(s string) bool {
	return s == ApplicationPending || s == ApplicationAccepted || s == ApplicationRejected
}

// Application links one volunteer to one opportunity. The composite unique
// index on (opportunity_id, volunteer_id) is the authoritative guard against
// duplicate applications; service-level checks are advisory.
//
// An application is also the authorization anchor for messaging: a thread is
// legitimate only between the applying volunteer and the opportunity's NGO.
type Application struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OpportunityID uint64    `gorm:"column:opportunity_id;not null;uniqueIndex:idx_opportunity_volunteer" json:"opportunity_id"`
	VolunteerID   uint64    `gorm:"column:volunteer_id;not null;index;uniqueIndex:idx_opportunity_volunteer" json:"volunteer_id"`
	Status        string    `gorm:"column:status;size:20;not null;index;default:pending" json:"status"`
	CoverLetter   string    `gorm:"column:cover_letter;type:text" json:"cover_letter,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Application) TableName() string { return "applications" }

// ApplicationResponse application view with joined context
type ApplicationResponse struct {
	ID               uint64 `json:"id"`
	OpportunityID    uint64 `json:"opportunity_id"`
	OpportunityTitle string `json:"opportunity_title,omitempty"`
	VolunteerID      uint64 `json:"volunteer_id"`
	VolunteerName    string `json:"volunteer_name,omitempty"`
	Status           string `json:"status"`
	CoverLetter      string `json:"cover_letter,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// ToResponse converts an Application to its view
func (a *Application) ToResponse() *ApplicationResponse {
	return &ApplicationResponse{
		ID:            a.ID,
		OpportunityID: a.OpportunityID,
		VolunteerID:   a.VolunteerID,
		Status:        a.Status,
		CoverLetter:   a.CoverLetter,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

// ApplyRequest application submission payload
type ApplyRequest struct {
	OpportunityID uint64 `json:"opportunity_id" binding:"required"`
	CoverLetter   string `json:"cover_letter"`
}

// SetApplicationStatusRequest NGO review payload
type SetApplicationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
