package migration

import (
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"gorm.io/gorm"
)

// Run executes AutoMigrate for all models. Creates missing tables and
// indexes, skips ones that already exist. The composite unique index on
// applications (opportunity_id, volunteer_id) comes from the model tags and
// is the duplicate-application guard.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Opportunity{},
		&domain.Application{},
		&domain.Message{},
	)
}
