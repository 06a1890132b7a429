package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"gorm.io/gorm"
)

// ApplicationRepository application data access
type ApplicationRepository interface {
	Create(app *domain.Application) error
	FindByID(id uint64) (*domain.Application, error)
	FindByPair(opportunityID, volunteerID uint64) (*domain.Application, error)
	FindByVolunteer(volunteerID uint64) ([]domain.Application, error)
	FindByOpportunity(opportunityID uint64) ([]domain.Application, error)
	FindParticipating(userID uint64) ([]domain.Application, error)
	CountByOpportunity(opportunityID uint64, status string) (int64, error)
	UpdateStatus(id uint64, status string) error
	Delete(id uint64) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create inserts an application. The composite unique index on
// (opportunity_id, volunteer_id) closes the race between concurrent
// submissions; a losing insert surfaces as ErrDuplicateApplication.
func (r *applicationRepository) Create(app *domain.Application) error {
	if err := r.db.Create(app).Error; err != nil {
		if isDuplicateKey(err) {
			return common.ErrDuplicateApplication
		}
		return err
	}
	return nil
}

// isDuplicateKey recognizes unique-constraint violations across drivers
// (MySQL in production, SQLite in tests).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *applicationRepository) FindByID(id uint64) (*domain.Application, error) {
	var app domain.Application
	err := r.db.Where("id = ?", id).First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByPair(opportunityID, volunteerID uint64) (*domain.Application, error) {
	var app domain.Application
	err := r.db.Where("opportunity_id = ? AND volunteer_id = ?", opportunityID, volunteerID).First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByVolunteer(volunteerID uint64) ([]domain.Application, error) {
	var apps []domain.Application
	err := r.db.Where("volunteer_id = ?", volunteerID).Order("created_at DESC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) FindByOpportunity(opportunityID uint64) ([]domain.Application, error) {
	var apps []domain.Application
	err := r.db.Where("opportunity_id = ?", opportunityID).Order("created_at DESC").Find(&apps).Error
	return apps, err
}

// FindParticipating returns every application where userID is either the
// applying volunteer or the NGO owning the referenced opportunity.
func (r *applicationRepository) FindParticipating(userID uint64) ([]domain.Application, error) {
	var apps []domain.Application
	err := r.db.
		Joins("JOIN opportunities ON opportunities.id = applications.opportunity_id").
		Where("applications.volunteer_id = ? OR opportunities.ngo_id = ?", userID, userID).
		Order("applications.created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) CountByOpportunity(opportunityID uint64, status string) (int64, error) {
	var count int64
	query := r.db.Model(&domain.Application{}).Where("opportunity_id = ?", opportunityID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *applicationRepository) UpdateStatus(id uint64, status string) error {
	return r.db.Model(&domain.Application{}).Where("id = ?", id).Update("status", status).Error
}

func (r *applicationRepository) Delete(id uint64) error {
	return r.db.Where("id = ?", id).Delete(&domain.Application{}).Error
}
