package domain

import "time"

// User roles
const (
	RoleVolunteer = "volunteer"
	RoleNGO       = "ngo"
)

// User represents a registered account, volunteer or NGO.
// Email and Role are immutable after creation.
type User struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"column:email;size:190;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"column:password;size:255;not null" json:"-"`
	Name      string    `gorm:"column:name;size:120;not null" json:"name"`
	Role      string    `gorm:"column:role;size:20;not null;index" json:"role"`
	Bio       string    `gorm:"column:bio;type:text" json:"bio,omitempty"`
	Location  string    `gorm:"column:location;size:120" json:"location,omitempty"`
	// Volunteer profile
	Skills string `gorm:"column:skills;size:500" json:"skills,omitempty"`
	// NGO profile
	Organization string `gorm:"column:organization;size:190" json:"organization,omitempty"`
	Website      string `gorm:"column:website;size:500" json:"website,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsVolunteer reports whether the user has the volunteer role
func (u *User) IsVolunteer() bool { return u.Role == RoleVolunteer }

// IsNGO reports whether the user has the NGO role
func (u *User) IsNGO() bool { return u.Role == RoleNGO }

// UserResponse public view of a user
type UserResponse struct {
	ID           uint64 `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Bio          string `json:"bio,omitempty"`
	Location     string `json:"location,omitempty"`
	Skills       string `json:"skills,omitempty"`
	Organization string `json:"organization,omitempty"`
	Website      string `json:"website,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ToResponse converts a User to its public view
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Bio:          u.Bio,
		Location:     u.Location,
		Skills:       u.Skills,
		Organization: u.Organization,
		Website:      u.Website,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
}

// RegisterRequest signup payload
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Name         string `json:"name" binding:"required"`
	Role         string `json:"role" binding:"required,oneof=volunteer ngo"`
	Bio          string `json:"bio"`
	Location     string `json:"location"`
	Skills       string `json:"skills"`
	Organization string `json:"organization"`
	Website      string `json:"website"`
}

// UpdateProfileRequest profile mutation payload.
// Email and role are deliberately absent: they cannot change.
type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	Bio          *string `json:"bio"`
	Location     *string `json:"location"`
	Skills       *string `json:"skills"`
	Organization *string `json:"organization"`
	Website      *string `json:"website"`
}

// ChangePasswordRequest password change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}
