package domain

import "time"

// Opportunity statuses
const (
	OpportunityOpen       = "open"
	OpportunityInProgress = "in_progress"
	OpportunityClosed     = "closed"
)

// ValidOpportunityStatus reports whether s is a known posting status
func ValidOpportunityStatus(s string) bool {
	return s == OpportunityOpen || s == OpportunityInProgress || s == OpportunityClosed
}

// Opportunity is an NGO-authored posting. NGOID never changes.
type Opportunity struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NGOID       uint64    `gorm:"column:ngo_id;index;not null" json:"ngo_id"`
	Title       string    `gorm:"column:title;size:255;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Skills      string    `gorm:"column:skills;size:500" json:"skills,omitempty"`
	Location    string    `gorm:"column:location;size:120;index" json:"location,omitempty"`
	Duration    string    `gorm:"column:duration;size:120" json:"duration,omitempty"`
	Status      string    `gorm:"column:status;size:20;not null;index;default:open" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Opportunity) TableName() string { return "opportunities" }

// OpportunityResponse posting view, optionally enriched for the owner
type OpportunityResponse struct {
	ID          uint64 `json:"id"`
	NGOID       uint64 `json:"ngo_id"`
	NGOName     string `json:"ngo_name,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Skills      string `json:"skills,omitempty"`
	Location    string `json:"location,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`

	// Owner-only enrichment
	ApplicantCount int64 `json:"applicant_count,omitempty"`
	PendingCount   int64 `json:"pending_count,omitempty"`
}

// ToResponse converts an Opportunity to its public view
func (o *Opportunity) ToResponse() *OpportunityResponse {
	return &OpportunityResponse{
		ID:          o.ID,
		NGOID:       o.NGOID,
		Title:       o.Title,
		Description: o.Description,
		Skills:      o.Skills,
		Location:    o.Location,
		Duration:    o.Duration,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
}

// CreateOpportunityRequest posting creation payload.
// Status is absent on purpose: new postings always start open.
type CreateOpportunityRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Skills      string `json:"skills"`
	Location    string `json:"location"`
	Duration    string `json:"duration"`
}

// UpdateOpportunityRequest posting mutation payload
type UpdateOpportunityRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Skills      *string `json:"skills"`
	Location    *string `json:"location"`
	Duration    *string `json:"duration"`
	Status      *string `json:"status"`
}

// OpportunityFilter listing filter
type OpportunityFilter struct {
	Status   string
	Location string
	Skill    string
	Page     int
	PerPage  int
}
