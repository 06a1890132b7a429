package repository

import (
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"gorm.io/gorm"
)

// OpportunityRepository opportunity data access
type OpportunityRepository interface {
	Create(op *domain.Opportunity) error
	FindByID(id uint64) (*domain.Opportunity, error)
	FindByIDs(ids []uint64) (map[uint64]*domain.Opportunity, error)
	FindByNGO(ngoID uint64) ([]domain.Opportunity, error)
	List(filter domain.OpportunityFilter) ([]domain.Opportunity, int64, error)
	Update(op *domain.Opportunity) error
	Delete(id uint64) error
}

type opportunityRepository struct {
	db *gorm.DB
}

// NewOpportunityRepository creates a new OpportunityRepository
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) Create(op *domain.Opportunity) error {
	return r.db.Create(op).Error
}

func (r *opportunityRepository) FindByID(id uint64) (*domain.Opportunity, error) {
	var op domain.Opportunity
	err := r.db.Where("id = ?", id).First(&op).Error
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *opportunityRepository) FindByIDs(ids []uint64) (map[uint64]*domain.Opportunity, error) {
	result := make(map[uint64]*domain.Opportunity, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var ops []domain.Opportunity
	if err := r.db.Where("id IN ?", ids).Find(&ops).Error; err != nil {
		return nil, err
	}
	for i := range ops {
		result[ops[i].ID] = &ops[i]
	}
	return result, nil
}

func (r *opportunityRepository) FindByNGO(ngoID uint64) ([]domain.Opportunity, error) {
	var ops []domain.Opportunity
	err := r.db.Where("ngo_id = ?", ngoID).Order("created_at DESC").Find(&ops).Error
	return ops, err
}

// List returns a filtered, paginated page of postings. All filters are
// optional; skill matching is a substring match over the CSV skills column.
func (r *opportunityRepository) List(filter domain.OpportunityFilter) ([]domain.Opportunity, int64, error) {
	var ops []domain.Opportunity
	var total int64

	query := r.db.Model(&domain.Opportunity{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.Skill != "" {
		query = query.Where("skills LIKE ?", "%"+filter.Skill+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PerPage
	if err := query.Order("created_at DESC").Offset(offset).Limit(filter.PerPage).Find(&ops).Error; err != nil {
		return nil, 0, err
	}
	return ops, total, nil
}

func (r *opportunityRepository) Update(op *domain.Opportunity) error {
	return r.db.Save(op).Error
}

func (r *opportunityRepository) Delete(id uint64) error {
	return r.db.Where("id = ?", id).Delete(&domain.Opportunity{}).Error
}
