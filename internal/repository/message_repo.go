package repository

import (
	"time"

	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"gorm.io/gorm"
)

// MessageRepository message data access. "Viewer side" methods take a
// forVolunteer flag selecting which per-participant hidden column applies.
type MessageRepository interface {
	Create(msg *domain.Message) error
	FindThread(applicationID uint64, forVolunteer bool) ([]domain.Message, error)
	FindLastVisible(applicationID uint64, forVolunteer bool) (*domain.Message, error)
	CountUnread(applicationID, viewerID uint64, forVolunteer bool) (int64, error)
	MarkThreadRead(applicationID, viewerID uint64) error
	HideThreadFor(applicationID uint64, forVolunteer bool) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func hiddenColumn(forVolunteer bool) string {
	if forVolunteer {
		return "hidden_for_volunteer"
	}
	return "hidden_for_ngo"
}

func (r *messageRepository) Create(msg *domain.Message) error {
	return r.db.Create(msg).Error
}

// FindThread returns the thread ascending by creation, excluding messages
// the viewer has hidden for themselves.
func (r *messageRepository) FindThread(applicationID uint64, forVolunteer bool) ([]domain.Message, error) {
	var msgs []domain.Message
	err := r.db.
		Where("application_id = ? AND "+hiddenColumn(forVolunteer)+" = ?", applicationID, false).
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) FindLastVisible(applicationID uint64, forVolunteer bool) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.
		Where("application_id = ? AND "+hiddenColumn(forVolunteer)+" = ?", applicationID, false).
		Order("id DESC").
		First(&msg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) CountUnread(applicationID, viewerID uint64, forVolunteer bool) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Message{}).
		Where("application_id = ? AND sender_id <> ? AND is_read = ? AND "+hiddenColumn(forVolunteer)+" = ?",
			applicationID, viewerID, false, false).
		Count(&count).Error
	return count, err
}

// MarkThreadRead flips unread counterpart messages to read. The transition
// is monotonic (false to true only) and therefore idempotent.
func (r *messageRepository) MarkThreadRead(applicationID, viewerID uint64) error {
	now := time.Now()
	return r.db.Model(&domain.Message{}).
		Where("application_id = ? AND sender_id <> ? AND is_read = ?", applicationID, viewerID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now}).Error
}

// HideThreadFor tombstones the current history for one participant only.
// Messages sent after this call arrive unhidden.
func (r *messageRepository) HideThreadFor(applicationID uint64, forVolunteer bool) error {
	return r.db.Model(&domain.Message{}).
		Where("application_id = ?", applicationID).
		Update(hiddenColumn(forVolunteer), true).Error
}
