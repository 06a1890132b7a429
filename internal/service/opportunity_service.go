package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/pkg/cache"
	"gorm.io/gorm"
)

// OpportunityService posting business logic
type OpportunityService interface {
	Create(ngoID uint64, role string, req *domain.CreateOpportunityRequest) (*domain.OpportunityResponse, error)
	Get(id, viewerID uint64) (*domain.OpportunityResponse, error)
	List(filter domain.OpportunityFilter) ([]domain.OpportunityResponse, int64, error)
	ListByNGO(ngoID uint64) ([]domain.OpportunityResponse, error)
	Update(id, ngoID uint64, req *domain.UpdateOpportunityRequest) (*domain.OpportunityResponse, error)
	Delete(id, ngoID uint64) error
}

type opportunityService struct {
	opportunityRepo repository.OpportunityRepository
	applicationRepo repository.ApplicationRepository
	userRepo        repository.UserRepository
	cache           cache.Service
}

// NewOpportunityService creates a new OpportunityService
func NewOpportunityService(
	opportunityRepo repository.OpportunityRepository,
	applicationRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	cacheService cache.Service,
) OpportunityService {
	return &opportunityService{
		opportunityRepo: opportunityRepo,
		applicationRepo: applicationRepo,
		userRepo:        userRepo,
		cache:           cacheService,
	}
}

// Create stores a new posting. New postings always start open regardless
// of anything the client sent.
func (s *opportunityService) Create(ngoID uint64, role string, req *domain.CreateOpportunityRequest) (*domain.OpportunityResponse, error) {
	if role != domain.RoleNGO {
		return nil, common.ErrForbidden
	}

	op := &domain.Opportunity{
		NGOID:       ngoID,
		Title:       req.Title,
		Description: req.Description,
		Skills:      req.Skills,
		Location:    req.Location,
		Duration:    req.Duration,
		Status:      domain.OpportunityOpen,
	}

	if err := s.opportunityRepo.Create(op); err != nil {
		return nil, err
	}

	s.invalidate(op.ID)

	resp := op.ToResponse()
	if names, err := s.userRepo.FindNamesByIDs([]uint64{ngoID}); err == nil {
		resp.NGOName = names[ngoID]
	}
	return resp, nil
}

// Get returns one posting. The public view is cached per id; the owner
// additionally sees applicant counts, which are always computed fresh.
func (s *opportunityService) Get(id, viewerID uint64) (*domain.OpportunityResponse, error) {
	key := fmt.Sprintf("%s%d", cache.PrefixOpportunity, id)

	var resp *domain.OpportunityResponse
	if s.cache != nil && s.cache.IsAvailable() {
		var hit domain.OpportunityResponse
		if err := s.cache.Get(context.Background(), key, &hit); err == nil {
			resp = &hit
		}
	}

	if resp == nil {
		op, err := s.opportunityRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, common.ErrOpportunityNotFound
			}
			return nil, err
		}

		resp = op.ToResponse()
		if names, err := s.userRepo.FindNamesByIDs([]uint64{op.NGOID}); err == nil {
			resp.NGOName = names[op.NGOID]
		}

		if s.cache != nil && s.cache.IsAvailable() {
			_ = s.cache.Set(context.Background(), key, resp, cache.TTLOpportunity)
		}
	}

	if viewerID == resp.NGOID {
		if total, err := s.applicationRepo.CountByOpportunity(id, ""); err == nil {
			resp.ApplicantCount = total
		}
		if pending, err := s.applicationRepo.CountByOpportunity(id, domain.ApplicationPending); err == nil {
			resp.PendingCount = pending
		}
	}

	return resp, nil
}

// List is the public, unauthenticated read. Listings are cached briefly;
// the cache key encodes the full filter.
func (s *opportunityService) List(filter domain.OpportunityFilter) ([]domain.OpportunityResponse, int64, error) {
	if filter.Status != "" && !domain.ValidOpportunityStatus(filter.Status) {
		return nil, 0, common.ErrInvalidStatus
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 20
	}

	type cached struct {
		Items []domain.OpportunityResponse `json:"items"`
		Total int64                        `json:"total"`
	}

	key := fmt.Sprintf("s=%s:l=%s:k=%s:p=%d:n=%d",
		filter.Status, filter.Location, filter.Skill, filter.Page, filter.PerPage)

	if s.cache != nil && s.cache.IsAvailable() {
		if data, err := s.cache.GetOpportunities(context.Background(), key); err == nil {
			var hit cached
			if json.Unmarshal(data, &hit) == nil {
				return hit.Items, hit.Total, nil
			}
		}
	}

	ops, total, err := s.opportunityRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}

	items := s.toResponses(ops)

	if s.cache != nil && s.cache.IsAvailable() {
		_ = s.cache.SetOpportunities(context.Background(), key, cached{Items: items, Total: total})
	}

	return items, total, nil
}

// ListByNGO returns the owner's postings with pending-application counts
func (s *opportunityService) ListByNGO(ngoID uint64) ([]domain.OpportunityResponse, error) {
	ops, err := s.opportunityRepo.FindByNGO(ngoID)
	if err != nil {
		return nil, err
	}

	items := s.toResponses(ops)
	for i := range items {
		if pending, err := s.applicationRepo.CountByOpportunity(items[i].ID, domain.ApplicationPending); err == nil {
			items[i].PendingCount = pending
		}
		if total, err := s.applicationRepo.CountByOpportunity(items[i].ID, ""); err == nil {
			items[i].ApplicantCount = total
		}
	}
	return items, nil
}

// Update mutates a posting. Only the owning NGO may do so; NGOID itself
// never changes.
func (s *opportunityService) Update(id, ngoID uint64, req *domain.UpdateOpportunityRequest) (*domain.OpportunityResponse, error) {
	op, err := s.opportunityRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrOpportunityNotFound
		}
		return nil, err
	}
	if op.NGOID != ngoID {
		return nil, common.ErrForbidden
	}

	if req.Title != nil {
		op.Title = *req.Title
	}
	if req.Description != nil {
		op.Description = *req.Description
	}
	if req.Skills != nil {
		op.Skills = *req.Skills
	}
	if req.Location != nil {
		op.Location = *req.Location
	}
	if req.Duration != nil {
		op.Duration = *req.Duration
	}
	if req.Status != nil {
		if !domain.ValidOpportunityStatus(*req.Status) {
			return nil, common.ErrInvalidStatus
		}
		op.Status = *req.Status
	}

	if err := s.opportunityRepo.Update(op); err != nil {
		return nil, err
	}

	s.invalidate(op.ID)
	return op.ToResponse(), nil
}

// Delete removes a posting. Only the owning NGO may do so.
func (s *opportunityService) Delete(id, ngoID uint64) error {
	op, err := s.opportunityRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrOpportunityNotFound
		}
		return err
	}
	if op.NGOID != ngoID {
		return common.ErrForbidden
	}

	if err := s.opportunityRepo.Delete(id); err != nil {
		return err
	}

	s.invalidate(id)
	return nil
}

func (s *opportunityService) toResponses(ops []domain.Opportunity) []domain.OpportunityResponse {
	ngoIDs := make([]uint64, 0, len(ops))
	for i := range ops {
		ngoIDs = append(ngoIDs, ops[i].NGOID)
	}
	names, _ := s.userRepo.FindNamesByIDs(ngoIDs)

	items := make([]domain.OpportunityResponse, 0, len(ops))
	for i := range ops {
		resp := ops[i].ToResponse()
		resp.NGOName = names[ops[i].NGOID]
		items = append(items, *resp)
	}
	return items
}

// invalidate drops the per-posting cache entry and every cached listing
// after a write.
func (s *opportunityService) invalidate(id uint64) {
	if s.cache == nil || !s.cache.IsAvailable() {
		return
	}
	ctx := context.Background()
	_ = s.cache.Delete(ctx, fmt.Sprintf("%s%d", cache.PrefixOpportunity, id))
	_ = s.cache.InvalidateOpportunities(ctx)
}
