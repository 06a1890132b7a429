package service

import (
	"sync"
	"testing"

	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/migration"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/ws"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubNotifier records events instead of pushing them to a hub
type stubNotifier struct {
	mu     sync.Mutex
	events []notifiedEvent
}

type notifiedEvent struct {
	UserID uint64
	Event  *ws.Event
}

func (n *stubNotifier) SendToUser(userID uint64, event *ws.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifiedEvent{UserID: userID, Event: event})
}

func (n *stubNotifier) last() *notifiedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return nil
	}
	return &n.events[len(n.events)-1]
}

type ApplicationServiceSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      ApplicationService
	notifier *stubNotifier

	volunteer   *domain.User
	ngo         *domain.User
	opportunity *domain.Opportunity
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceSuite))
}

func (s *ApplicationServiceSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(migration.Run(db))
	s.db = db

	s.notifier = &stubNotifier{}
	s.svc = NewApplicationService(
		repository.NewApplicationRepository(db),
		repository.NewOpportunityRepository(db),
		repository.NewUserRepository(db),
		s.notifier,
	)

	s.volunteer = &domain.User{Email: "vol@example.com", Password: "x", Name: "Vera", Role: domain.RoleVolunteer}
	s.ngo = &domain.User{Email: "ngo@example.com", Password: "x", Name: "Helping Hands", Role: domain.RoleNGO}
	s.Require().NoError(db.Create(s.volunteer).Error)
	s.Require().NoError(db.Create(s.ngo).Error)

	s.opportunity = &domain.Opportunity{
		NGOID:       s.ngo.ID,
		Title:       "Weekend tutoring",
		Description: "Math tutoring for middle schoolers",
		Status:      domain.OpportunityOpen,
	}
	s.Require().NoError(db.Create(s.opportunity).Error)
}

func (s *ApplicationServiceSuite) TestApply() {
	app, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{
		OpportunityID: s.opportunity.ID,
		CoverLetter:   "I taught math for two years",
	})
	s.NoError(err)
	s.Equal(domain.ApplicationPending, app.Status)
	s.Equal("Weekend tutoring", app.OpportunityTitle)
}

func (s *ApplicationServiceSuite) TestApply_NGORoleRejected() {
	_, err := s.svc.Apply(s.ngo.ID, domain.RoleNGO, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.ErrorIs(err, common.ErrForbidden)
}

func (s *ApplicationServiceSuite) TestApply_UnknownOpportunity() {
	_, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: 9999})
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *ApplicationServiceSuite) TestApply_ClosedOpportunity() {
	s.Require().NoError(s.db.Model(s.opportunity).Update("status", domain.OpportunityClosed).Error)

	_, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.ErrorIs(err, common.ErrOpportunityClosed)
}

func (s *ApplicationServiceSuite) TestApply_Duplicate() {
	_, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)

	_, err = s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.ErrorIs(err, common.ErrDuplicateApplication)
}

func (s *ApplicationServiceSuite) TestSetStatus() {
	app, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)

	updated, err := s.svc.SetStatus(app.ID, s.ngo.ID, domain.ApplicationAccepted)
	s.NoError(err)
	s.Equal(domain.ApplicationAccepted, updated.Status)

	// The volunteer was notified
	evt := s.notifier.last()
	s.Require().NotNil(evt)
	s.Equal(s.volunteer.ID, evt.UserID)
	s.Equal(ws.EventApplicationStatus, evt.Event.Type)
}

func (s *ApplicationServiceSuite) TestSetStatus_NonOwnerForbidden() {
	app, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)

	otherNGO := &domain.User{Email: "other@example.com", Password: "x", Name: "Other Org", Role: domain.RoleNGO}
	s.Require().NoError(s.db.Create(otherNGO).Error)

	_, err = s.svc.SetStatus(app.ID, otherNGO.ID, domain.ApplicationAccepted)
	s.ErrorIs(err, common.ErrForbidden)
}

func (s *ApplicationServiceSuite) TestSetStatus_InvalidStatus() {
	app, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)

	_, err = s.svc.SetStatus(app.ID, s.ngo.ID, "approved")
	s.ErrorIs(err, common.ErrInvalidStatus)
}

func (s *ApplicationServiceSuite) TestWithdraw() {
	app, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)

	s.NoError(s.svc.Withdraw(app.ID, s.volunteer.ID))

	var count int64
	s.db.Model(&domain.Application{}).Count(&count)
	s.EqualValues(0, count)
}

func (s *ApplicationServiceSuite) TestWithdraw_DecidedForbidden() {
	app, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)
	_, err = s.svc.SetStatus(app.ID, s.ngo.ID, domain.ApplicationAccepted)
	s.Require().NoError(err)

	s.ErrorIs(s.svc.Withdraw(app.ID, s.volunteer.ID), common.ErrForbidden)
}

func (s *ApplicationServiceSuite) TestWithdraw_OtherVolunteerForbidden() {
	app, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)

	other := &domain.User{Email: "other-vol@example.com", Password: "x", Name: "Olli", Role: domain.RoleVolunteer}
	s.Require().NoError(s.db.Create(other).Error)

	s.ErrorIs(s.svc.Withdraw(app.ID, other.ID), common.ErrForbidden)
}

func (s *ApplicationServiceSuite) TestListForOpportunity() {
	_, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)

	items, err := s.svc.ListForOpportunity(s.opportunity.ID, s.ngo.ID)
	s.NoError(err)
	s.Require().Len(items, 1)
	s.Equal("Vera", items[0].VolunteerName)

	_, err = s.svc.ListForOpportunity(s.opportunity.ID, s.volunteer.ID)
	s.ErrorIs(err, common.ErrForbidden)
}

func (s *ApplicationServiceSuite) TestListForVolunteer() {
	_, err := s.svc.Apply(s.volunteer.ID, domain.RoleVolunteer, &domain.ApplyRequest{OpportunityID: s.opportunity.ID})
	s.Require().NoError(err)

	items, err := s.svc.ListForVolunteer(s.volunteer.ID)
	s.NoError(err)
	s.Require().Len(items, 1)
	s.Equal("Weekend tutoring", items[0].OpportunityTitle)
}
