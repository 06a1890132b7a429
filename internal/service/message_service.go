package service

import (
	"strings"

	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/internal/ws"
)

// Preview length for new-message notifications, in runes so a multi-byte
// character is never split mid-sequence
const messagePreviewLen = 120

func previewOf(body string) string {
	runes := []rune(body)
	if len(runes) > messagePreviewLen {
		return string(runes[:messagePreviewLen])
	}
	return body
}

// MessageService application-scoped direct messaging
type MessageService interface {
	Send(applicationID, senderID uint64, req *domain.SendMessageRequest) (*domain.Message, error)
	List(applicationID, callerID uint64) ([]domain.Message, error)
	MarkRead(applicationID, callerID uint64) error
	HideForUser(applicationID, callerID uint64) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	threads     ThreadService
	notifier    Notifier
}

// NewMessageService creates a new MessageService
func NewMessageService(messageRepo repository.MessageRepository, threads ThreadService, notifier Notifier) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		threads:     threads,
		notifier:    notifier,
	}
}

// Send stores a message in the application thread and notifies the
// counterpart. The message lands unread and unhidden for both sides, so it
// reappears even after the recipient cleared their history.
func (s *messageService) Send(applicationID, senderID uint64, req *domain.SendMessageRequest) (*domain.Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, common.ErrInvalidInput
	}

	participants, _, err := s.threads.Authorize(applicationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ApplicationID: applicationID,
		SenderID:      senderID,
		Body:          body,
	}
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.SendToUser(participants.Counterpart(senderID), &ws.Event{
			Type: ws.EventNewMessage,
			Payload: map[string]interface{}{
				"application_id": applicationID,
				"sender_id":      senderID,
				"preview":        previewOf(body),
			},
		})
	}

	return msg, nil
}

// List returns the caller's view of the thread in ascending creation order.
// Messages the caller hid stay out; the counterpart's view is unaffected.
func (s *messageService) List(applicationID, callerID uint64) ([]domain.Message, error) {
	participants, _, err := s.threads.Authorize(applicationID, callerID)
	if err != nil {
		return nil, err
	}
	return s.messageRepo.FindThread(applicationID, callerID == participants.VolunteerID)
}

// MarkRead marks every counterpart message in the thread as read. Repeat
// calls are no-ops; read_at keeps the first transition's timestamp.
func (s *messageService) MarkRead(applicationID, callerID uint64) error {
	participants, _, err := s.threads.Authorize(applicationID, callerID)
	if err != nil {
		return err
	}

	if err := s.messageRepo.MarkThreadRead(applicationID, callerID); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.SendToUser(participants.Counterpart(callerID), &ws.Event{
			Type: ws.EventMessagesRead,
			Payload: map[string]interface{}{
				"application_id": applicationID,
				"reader_id":      callerID,
			},
		})
	}
	return nil
}

// HideForUser clears the caller's view of the current history without
// deleting anything. The counterpart keeps their copy.
func (s *messageService) HideForUser(applicationID, callerID uint64) error {
	participants, _, err := s.threads.Authorize(applicationID, callerID)
	if err != nil {
		return err
	}
	return s.messageRepo.HideThreadFor(applicationID, callerID == participants.VolunteerID)
}
