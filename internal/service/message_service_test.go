package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/migration"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/ws"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type MessageServiceSuite struct {
	suite.Suite
	db       *gorm.DB
	messages MessageService
	threads  ThreadService
	notifier *stubNotifier

	volunteer   *domain.User
	ngo         *domain.User
	outsider    *domain.User
	application *domain.Application
}

func TestMessageServiceSuite(t *testing.T) {
	suite.Run(t, new(MessageServiceSuite))
}

func (s *MessageServiceSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(migration.Run(db))
	s.db = db

	applicationRepo := repository.NewApplicationRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	s.notifier = &stubNotifier{}
	s.threads = NewThreadService(applicationRepo, opportunityRepo, userRepo, messageRepo)
	s.messages = NewMessageService(messageRepo, s.threads, s.notifier)

	s.volunteer = &domain.User{Email: "vol@example.com", Password: "x", Name: "Vera", Role: domain.RoleVolunteer}
	s.ngo = &domain.User{Email: "ngo@example.com", Password: "x", Name: "Helping Hands", Role: domain.RoleNGO}
	s.outsider = &domain.User{Email: "out@example.com", Password: "x", Name: "Oscar", Role: domain.RoleVolunteer}
	s.Require().NoError(db.Create(s.volunteer).Error)
	s.Require().NoError(db.Create(s.ngo).Error)
	s.Require().NoError(db.Create(s.outsider).Error)

	opportunity := &domain.Opportunity{
		NGOID:       s.ngo.ID,
		Title:       "Weekend tutoring",
		Description: "Math tutoring",
		Status:      domain.OpportunityOpen,
	}
	s.Require().NoError(db.Create(opportunity).Error)

	s.application = &domain.Application{
		OpportunityID: opportunity.ID,
		VolunteerID:   s.volunteer.ID,
		Status:        domain.ApplicationAccepted,
	}
	s.Require().NoError(db.Create(s.application).Error)
}

func (s *MessageServiceSuite) TestAuthorize_ParticipantsOnly() {
	for _, userID := range []uint64{s.volunteer.ID, s.ngo.ID} {
		_, _, err := s.threads.Authorize(s.application.ID, userID)
		s.NoError(err)
	}

	_, _, err := s.threads.Authorize(s.application.ID, s.outsider.ID)
	s.ErrorIs(err, common.ErrForbidden)

	_, _, err = s.threads.Authorize(9999, s.volunteer.ID)
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *MessageServiceSuite) TestAuthorize_SurvivesRejection() {
	s.Require().NoError(s.db.Model(s.application).Update("status", domain.ApplicationRejected).Error)

	// Participants keep access to history after the decision
	_, _, err := s.threads.Authorize(s.application.ID, s.volunteer.ID)
	s.NoError(err)
}

func (s *MessageServiceSuite) TestSend() {
	msg, err := s.messages.Send(s.application.ID, s.volunteer.ID, &domain.SendMessageRequest{Body: "Hello!"})
	s.NoError(err)
	s.False(msg.IsRead)

	// The NGO counterpart was notified
	evt := s.notifier.last()
	s.Require().NotNil(evt)
	s.Equal(s.ngo.ID, evt.UserID)
	s.Equal(ws.EventNewMessage, evt.Event.Type)
}

func (s *MessageServiceSuite) TestSend_PreviewTruncatesOnRuneBoundary() {
	body := strings.Repeat("é", messagePreviewLen+30)
	_, err := s.messages.Send(s.application.ID, s.volunteer.ID, &domain.SendMessageRequest{Body: body})
	s.Require().NoError(err)

	evt := s.notifier.last()
	s.Require().NotNil(evt)
	payload := evt.Event.Payload.(map[string]interface{})
	preview := payload["preview"].(string)

	s.True(utf8.ValidString(preview))
	s.Equal(messagePreviewLen, utf8.RuneCountInString(preview))
	s.Equal(strings.Repeat("é", messagePreviewLen), preview)
}

func (s *MessageServiceSuite) TestSend_ShortBodyPreviewUntruncated() {
	_, err := s.messages.Send(s.application.ID, s.volunteer.ID, &domain.SendMessageRequest{Body: "¿Cuándo empezamos?"})
	s.Require().NoError(err)

	evt := s.notifier.last()
	s.Require().NotNil(evt)
	payload := evt.Event.Payload.(map[string]interface{})
	s.Equal("¿Cuándo empezamos?", payload["preview"])
}

func (s *MessageServiceSuite) TestSend_EmptyBody() {
	_, err := s.messages.Send(s.application.ID, s.volunteer.ID, &domain.SendMessageRequest{Body: "   "})
	s.ErrorIs(err, common.ErrInvalidInput)
}

func (s *MessageServiceSuite) TestSend_OutsiderForbidden() {
	_, err := s.messages.Send(s.application.ID, s.outsider.ID, &domain.SendMessageRequest{Body: "Hi"})
	s.ErrorIs(err, common.ErrForbidden)
}

func (s *MessageServiceSuite) TestList_Ascending() {
	for _, body := range []string{"first", "second", "third"} {
		_, err := s.messages.Send(s.application.ID, s.volunteer.ID, &domain.SendMessageRequest{Body: body})
		s.Require().NoError(err)
	}

	msgs, err := s.messages.List(s.application.ID, s.ngo.ID)
	s.NoError(err)
	s.Require().Len(msgs, 3)
	s.Equal("first", msgs[0].Body)
	s.Equal("third", msgs[2].Body)
}

func (s *MessageServiceSuite) TestMarkRead_Idempotent() {
	_, err := s.messages.Send(s.application.ID, s.volunteer.ID, &domain.SendMessageRequest{Body: "Hello"})
	s.Require().NoError(err)

	s.Require().NoError(s.messages.MarkRead(s.application.ID, s.ngo.ID))

	var msg domain.Message
	s.Require().NoError(s.db.First(&msg).Error)
	s.True(msg.IsRead)
	s.Require().NotNil(msg.ReadAt)
	firstReadAt := *msg.ReadAt

	// Second call leaves read state and timestamp untouched
	s.Require().NoError(s.messages.MarkRead(s.application.ID, s.ngo.ID))
	s.Require().NoError(s.db.First(&msg).Error)
	s.True(msg.IsRead)
	s.Equal(firstReadAt, *msg.ReadAt)

	// Reader's own outgoing messages are never marked
	evt := s.notifier.last()
	s.Require().NotNil(evt)
	s.Equal(ws.EventMessagesRead, evt.Event.Type)
	s.Equal(s.volunteer.ID, evt.UserID)
}

func (s *MessageServiceSuite) TestHideForUser_OneSided() {
	_, err := s.messages.Send(s.application.ID, s.volunteer.ID, &domain.SendMessageRequest{Body: "Hello"})
	s.Require().NoError(err)

	s.Require().NoError(s.messages.HideForUser(s.application.ID, s.ngo.ID))

	ngoView, err := s.messages.List(s.application.ID, s.ngo.ID)
	s.NoError(err)
	s.Empty(ngoView)

	volunteerView, err := s.messages.List(s.application.ID, s.volunteer.ID)
	s.NoError(err)
	s.Len(volunteerView, 1)

	// Later messages arrive unhidden
	_, err = s.messages.Send(s.application.ID, s.volunteer.ID, &domain.SendMessageRequest{Body: "Still there?"})
	s.Require().NoError(err)

	ngoView, err = s.messages.List(s.application.ID, s.ngo.ID)
	s.NoError(err)
	s.Require().Len(ngoView, 1)
	s.Equal("Still there?", ngoView[0].Body)
}

func (s *MessageServiceSuite) TestListThreads() {
	_, err := s.messages.Send(s.application.ID, s.ngo.ID, &domain.SendMessageRequest{Body: "Welcome aboard"})
	s.Require().NoError(err)

	threads, err := s.threads.ListThreads(s.volunteer.ID)
	s.NoError(err)
	s.Require().Len(threads, 1)

	t := threads[0]
	s.Equal(s.application.ID, t.ApplicationID)
	s.Equal(s.ngo.ID, t.CounterpartID)
	s.Equal("Helping Hands", t.CounterpartName)
	s.Equal("Welcome aboard", t.LastMessage)
	s.EqualValues(1, t.UnreadCount)
	s.True(t.CanMessage)

	// After reading, the unread count drops to zero
	s.Require().NoError(s.messages.MarkRead(s.application.ID, s.volunteer.ID))
	threads, err = s.threads.ListThreads(s.volunteer.ID)
	s.NoError(err)
	s.Require().Len(threads, 1)
	s.EqualValues(0, threads[0].UnreadCount)
}

func (s *MessageServiceSuite) TestListThreads_PendingNotComposable() {
	s.Require().NoError(s.db.Model(s.application).Update("status", domain.ApplicationPending).Error)

	threads, err := s.threads.ListThreads(s.ngo.ID)
	s.NoError(err)
	s.Require().Len(threads, 1)
	s.False(threads[0].CanMessage)
	s.Equal(s.volunteer.ID, threads[0].CounterpartID)
}
