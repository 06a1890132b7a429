package service

import (
	"errors"
	"time"

	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"gorm.io/gorm"
)

// ThreadService resolves application threads and answers the one question
// every messaging call starts with: is this caller a participant?
type ThreadService interface {
	ResolveParticipants(applicationID uint64) (domain.Participants, *domain.Application, error)
	Authorize(applicationID, callerID uint64) (domain.Participants, *domain.Application, error)
	ListThreads(userID uint64) ([]domain.ThreadResponse, error)
}

type threadService struct {
	applicationRepo repository.ApplicationRepository
	opportunityRepo repository.OpportunityRepository
	userRepo        repository.UserRepository
	messageRepo     repository.MessageRepository
}

// NewThreadService creates a new ThreadService
func NewThreadService(
	applicationRepo repository.ApplicationRepository,
	opportunityRepo repository.OpportunityRepository,
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
) ThreadService {
	return &threadService{
		applicationRepo: applicationRepo,
		opportunityRepo: opportunityRepo,
		userRepo:        userRepo,
		messageRepo:     messageRepo,
	}
}

// ResolveParticipants loads the application and its opportunity and returns
// the two legitimate thread participants.
func (s *threadService) ResolveParticipants(applicationID uint64) (domain.Participants, *domain.Application, error) {
	app, err := s.applicationRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Participants{}, nil, common.ErrNotFound
		}
		return domain.Participants{}, nil, err
	}

	op, err := s.opportunityRepo.FindByID(app.OpportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Participants{}, nil, common.ErrNotFound
		}
		return domain.Participants{}, nil, err
	}

	return domain.Participants{VolunteerID: app.VolunteerID, NGOID: op.NGOID}, app, nil
}

// Authorize admits exactly the two resolved participants, regardless of
// application status: a rejected applicant keeps access to history that was
// exchanged before the decision. Composers gate on status separately.
func (s *threadService) Authorize(applicationID, callerID uint64) (domain.Participants, *domain.Application, error) {
	participants, app, err := s.ResolveParticipants(applicationID)
	if err != nil {
		return domain.Participants{}, nil, err
	}
	if !participants.Contains(callerID) {
		return domain.Participants{}, nil, common.ErrForbidden
	}
	return participants, app, nil
}

// ListThreads returns every thread the user participates in, annotated with
// last message, unread count and the composer hint.
func (s *threadService) ListThreads(userID uint64) ([]domain.ThreadResponse, error) {
	apps, err := s.applicationRepo.FindParticipating(userID)
	if err != nil {
		return nil, err
	}

	opIDs := make([]uint64, 0, len(apps))
	for i := range apps {
		opIDs = append(opIDs, apps[i].OpportunityID)
	}
	ops, err := s.opportunityRepo.FindByIDs(opIDs)
	if err != nil {
		return nil, err
	}

	counterpartIDs := make([]uint64, 0, len(apps))
	for i := range apps {
		op, ok := ops[apps[i].OpportunityID]
		if !ok {
			continue
		}
		p := domain.Participants{VolunteerID: apps[i].VolunteerID, NGOID: op.NGOID}
		counterpartIDs = append(counterpartIDs, p.Counterpart(userID))
	}
	names, _ := s.userRepo.FindNamesByIDs(counterpartIDs)

	threads := make([]domain.ThreadResponse, 0, len(apps))
	for i := range apps {
		app := &apps[i]
		op, ok := ops[app.OpportunityID]
		if !ok {
			// Dangling opportunity reference; skip rather than fail the list
			continue
		}

		participants := domain.Participants{VolunteerID: app.VolunteerID, NGOID: op.NGOID}
		isVolunteer := userID == participants.VolunteerID

		thread := domain.ThreadResponse{
			ApplicationID:     app.ID,
			OpportunityID:     op.ID,
			OpportunityTitle:  op.Title,
			ApplicationStatus: app.Status,
			CounterpartID:     participants.Counterpart(userID),
			CounterpartName:   names[participants.Counterpart(userID)],
			CanMessage:        app.Status == domain.ApplicationAccepted,
		}

		if last, err := s.messageRepo.FindLastVisible(app.ID, isVolunteer); err == nil && last != nil {
			thread.LastMessage = last.Body
			thread.LastMessageAt = last.CreatedAt.Format(time.RFC3339)
		}
		if unread, err := s.messageRepo.CountUnread(app.ID, userID, isVolunteer); err == nil {
			thread.UnreadCount = unread
		}

		threads = append(threads, thread)
	}

	return threads, nil
}
