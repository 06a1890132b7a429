package domain

// Participants are the two legitimate sides of an application thread:
// the applying volunteer and the opportunity's owning NGO.
type Participants struct {
	VolunteerID uint64
	NGOID       uint64
}

// Contains reports whether userID is one of the two participants
func (p Participants) Contains(userID uint64) bool {
	return userID == p.VolunteerID || userID == p.NGOID
}

// Counterpart returns the other participant for a given caller
func (p Participants) Counterpart(userID uint64) uint64 {
	if userID == p.VolunteerID {
		return p.NGOID
	}
	return p.VolunteerID
}

// ThreadResponse is the derived conversation projection for one viewer.
// It has no storage of its own; lifecycle follows the underlying
// application and its messages.
type ThreadResponse struct {
	ApplicationID     uint64 `json:"application_id"`
	OpportunityID     uint64 `json:"opportunity_id"`
	OpportunityTitle  string `json:"opportunity_title"`
	ApplicationStatus string `json:"application_status"`
	CounterpartID     uint64 `json:"counterpart_id"`
	CounterpartName   string `json:"counterpart_name"`
	LastMessage       string `json:"last_message,omitempty"`
	LastMessageAt     string `json:"last_message_at,omitempty"`
	UnreadCount       int64  `json:"unread_count"`

	// CanMessage hints composers that the NGO has accepted the application.
	// Reading and replying in an existing thread is allowed regardless.
	CanMessage bool `json:"can_message"`
}
