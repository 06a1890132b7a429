package service

import (
	"errors"

	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/ws"
	"gorm.io/gorm"
)

// Notifier pushes best-effort real-time events to a user's topic.
// *ws.Hub satisfies this; an unreachable recipient is silently dropped.
type Notifier interface {
	SendToUser(userID uint64, event *ws.Event)
}

// ApplicationService application business logic
type ApplicationService interface {
	Apply(volunteerID uint64, role string, req *domain.ApplyRequest) (*domain.ApplicationResponse, error)
	SetStatus(applicationID, ngoID uint64, status string) (*domain.ApplicationResponse, error)
	Withdraw(applicationID, volunteerID uint64) error
	ListForVolunteer(volunteerID uint64) ([]domain.ApplicationResponse, error)
	ListForOpportunity(opportunityID, ngoID uint64) ([]domain.ApplicationResponse, error)
}

type applicationService struct {
	applicationRepo repository.ApplicationRepository
	opportunityRepo repository.OpportunityRepository
	userRepo        repository.UserRepository
	notifier        Notifier
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(
	applicationRepo repository.ApplicationRepository,
	opportunityRepo repository.OpportunityRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
) ApplicationService {
	return &applicationService{
		applicationRepo: applicationRepo,
		opportunityRepo: opportunityRepo,
		userRepo:        userRepo,
		notifier:        notifier,
	}
}

// Apply submits a volunteer's application to an open opportunity.
// The existence check before insert is advisory only; the composite unique
// index closes the race between concurrent duplicate submissions.
func (s *applicationService) Apply(volunteerID uint64, role string, req *domain.ApplyRequest) (*domain.ApplicationResponse, error) {
	if role != domain.RoleVolunteer {
		return nil, common.ErrForbidden
	}

	op, err := s.opportunityRepo.FindByID(req.OpportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if op.Status != domain.OpportunityOpen {
		return nil, common.ErrOpportunityClosed
	}

	if _, err := s.applicationRepo.FindByPair(req.OpportunityID, volunteerID); err == nil {
		return nil, common.ErrDuplicateApplication
	}

	app := &domain.Application{
		OpportunityID: req.OpportunityID,
		VolunteerID:   volunteerID,
		Status:        domain.ApplicationPending,
		CoverLetter:   req.CoverLetter,
	}

	if err := s.applicationRepo.Create(app); err != nil {
		return nil, err
	}

	resp := app.ToResponse()
	resp.OpportunityTitle = op.Title
	return resp, nil
}

// SetStatus is the NGO's review decision. Only the NGO owning the
// referenced opportunity may transition an application; accepted is the
// state that opens messaging composers for both sides.
func (s *applicationService) SetStatus(applicationID, ngoID uint64, status string) (*domain.ApplicationResponse, error) {
	if !domain.ValidApplicationStatus(status) {
		return nil, common.ErrInvalidStatus
	}

	app, err := s.applicationRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}

	op, err := s.opportunityRepo.FindByID(app.OpportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if op.NGOID != ngoID {
		return nil, common.ErrForbidden
	}

	if err := s.applicationRepo.UpdateStatus(applicationID, status); err != nil {
		return nil, err
	}
	app.Status = status

	if s.notifier != nil {
		s.notifier.SendToUser(app.VolunteerID, &ws.Event{
			Type: ws.EventApplicationStatus,
			Payload: map[string]interface{}{
				"application_id": app.ID,
				"status":         status,
			},
		})
	}

	resp := app.ToResponse()
	resp.OpportunityTitle = op.Title
	return resp, nil
}

// Withdraw removes a pending application. Only the applying volunteer may
// withdraw, and only while the NGO has not decided.
func (s *applicationService) Withdraw(applicationID, volunteerID uint64) error {
	app, err := s.applicationRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound
		}
		return err
	}
	if app.VolunteerID != volunteerID {
		return common.ErrForbidden
	}
	if app.Status != domain.ApplicationPending {
		return common.ErrForbidden
	}

	return s.applicationRepo.Delete(applicationID)
}

// ListForVolunteer returns the volunteer's applications with posting titles
func (s *applicationService) ListForVolunteer(volunteerID uint64) ([]domain.ApplicationResponse, error) {
	apps, err := s.applicationRepo.FindByVolunteer(volunteerID)
	if err != nil {
		return nil, err
	}

	opIDs := make([]uint64, 0, len(apps))
	for i := range apps {
		opIDs = append(opIDs, apps[i].OpportunityID)
	}
	ops, _ := s.opportunityRepo.FindByIDs(opIDs)

	items := make([]domain.ApplicationResponse, 0, len(apps))
	for i := range apps {
		resp := apps[i].ToResponse()
		if op, ok := ops[apps[i].OpportunityID]; ok {
			resp.OpportunityTitle = op.Title
		}
		items = append(items, *resp)
	}
	return items, nil
}

// ListForOpportunity returns an opportunity's applications for its owner
func (s *applicationService) ListForOpportunity(opportunityID, ngoID uint64) ([]domain.ApplicationResponse, error) {
	op, err := s.opportunityRepo.FindByID(opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	if op.NGOID != ngoID {
		return nil, common.ErrForbidden
	}

	apps, err := s.applicationRepo.FindByOpportunity(opportunityID)
	if err != nil {
		return nil, err
	}

	volunteerIDs := make([]uint64, 0, len(apps))
	for i := range apps {
		volunteerIDs = append(volunteerIDs, apps[i].VolunteerID)
	}
	names, _ := s.userRepo.FindNamesByIDs(volunteerIDs)

	items := make([]domain.ApplicationResponse, 0, len(apps))
	for i := range apps {
		resp := apps[i].ToResponse()
		resp.OpportunityTitle = op.Title
		resp.VolunteerName = names[apps[i].VolunteerID]
		items = append(items, *resp)
	}
	return items, nil
}
