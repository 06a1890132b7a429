package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/migration"
	"github.com/skillbridge/skillbridge-backend/internal/repository"
	"github.com/skillbridge/skillbridge-backend/pkg/cache"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type OpportunityServiceSuite struct {
	suite.Suite
	db  *gorm.DB
	svc OpportunityService

	ngo       *domain.User
	volunteer *domain.User
}

func TestOpportunityServiceSuite(t *testing.T) {
	suite.Run(t, new(OpportunityServiceSuite))
}

func (s *OpportunityServiceSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(migration.Run(db))
	s.db = db

	s.svc = NewOpportunityService(
		repository.NewOpportunityRepository(db),
		repository.NewApplicationRepository(db),
		repository.NewUserRepository(db),
		nil, // no cache in tests
	)

	s.ngo = &domain.User{Email: "ngo@example.com", Password: "x", Name: "Helping Hands", Role: domain.RoleNGO}
	s.volunteer = &domain.User{Email: "vol@example.com", Password: "x", Name: "Vera", Role: domain.RoleVolunteer}
	s.Require().NoError(db.Create(s.ngo).Error)
	s.Require().NoError(db.Create(s.volunteer).Error)
}

func (s *OpportunityServiceSuite) create(title string) *domain.OpportunityResponse {
	op, err := s.svc.Create(s.ngo.ID, domain.RoleNGO, &domain.CreateOpportunityRequest{
		Title:       title,
		Description: "Help wanted",
		Skills:      "teaching,math",
		Location:    "Lisbon",
	})
	s.Require().NoError(err)
	return op
}

func (s *OpportunityServiceSuite) TestCreate() {
	op := s.create("Weekend tutoring")

	// New postings always start open regardless of client input
	s.Equal(domain.OpportunityOpen, op.Status)
	s.Equal("Helping Hands", op.NGOName)
}

func (s *OpportunityServiceSuite) TestCreate_VolunteerForbidden() {
	_, err := s.svc.Create(s.volunteer.ID, domain.RoleVolunteer, &domain.CreateOpportunityRequest{
		Title:       "Nope",
		Description: "Nope",
	})
	s.ErrorIs(err, common.ErrForbidden)
}

func (s *OpportunityServiceSuite) TestGet_OwnerSeesCounts() {
	op := s.create("Weekend tutoring")

	s.Require().NoError(s.db.Create(&domain.Application{
		OpportunityID: op.ID,
		VolunteerID:   s.volunteer.ID,
		Status:        domain.ApplicationPending,
	}).Error)

	asOwner, err := s.svc.Get(op.ID, s.ngo.ID)
	s.NoError(err)
	s.EqualValues(1, asOwner.ApplicantCount)
	s.EqualValues(1, asOwner.PendingCount)

	asStranger, err := s.svc.Get(op.ID, s.volunteer.ID)
	s.NoError(err)
	s.EqualValues(0, asStranger.ApplicantCount)
}

func (s *OpportunityServiceSuite) TestGet_NotFound() {
	_, err := s.svc.Get(9999, 0)
	s.ErrorIs(err, common.ErrOpportunityNotFound)
}

func (s *OpportunityServiceSuite) TestList_Filters() {
	s.create("Tutoring in Lisbon")
	other, err := s.svc.Create(s.ngo.ID, domain.RoleNGO, &domain.CreateOpportunityRequest{
		Title:       "Beach cleanup",
		Description: "Weekend cleanup",
		Skills:      "outdoors",
		Location:    "Porto",
	})
	s.Require().NoError(err)

	items, total, err := s.svc.List(domain.OpportunityFilter{Location: "Porto", Page: 1, PerPage: 20})
	s.NoError(err)
	s.EqualValues(1, total)
	s.Require().Len(items, 1)
	s.Equal(other.ID, items[0].ID)

	items, total, err = s.svc.List(domain.OpportunityFilter{Skill: "math", Page: 1, PerPage: 20})
	s.NoError(err)
	s.EqualValues(1, total)
	s.Equal("Tutoring in Lisbon", items[0].Title)
}

func (s *OpportunityServiceSuite) TestList_InvalidStatusFilter() {
	_, _, err := s.svc.List(domain.OpportunityFilter{Status: "cancelled"})
	s.ErrorIs(err, common.ErrInvalidStatus)
}

func (s *OpportunityServiceSuite) TestList_Pagination() {
	for _, title := range []string{"One", "Two", "Three"} {
		s.create(title)
	}

	items, total, err := s.svc.List(domain.OpportunityFilter{Page: 2, PerPage: 2})
	s.NoError(err)
	s.EqualValues(3, total)
	s.Len(items, 1)
}

func (s *OpportunityServiceSuite) TestUpdate() {
	op := s.create("Weekend tutoring")

	title := "Weekday tutoring"
	status := domain.OpportunityClosed
	updated, err := s.svc.Update(op.ID, s.ngo.ID, &domain.UpdateOpportunityRequest{
		Title:  &title,
		Status: &status,
	})
	s.NoError(err)
	s.Equal("Weekday tutoring", updated.Title)
	s.Equal(domain.OpportunityClosed, updated.Status)
}

func (s *OpportunityServiceSuite) TestUpdate_NonOwnerForbidden() {
	op := s.create("Weekend tutoring")

	otherNGO := &domain.User{Email: "other@example.com", Password: "x", Name: "Other", Role: domain.RoleNGO}
	s.Require().NoError(s.db.Create(otherNGO).Error)

	title := "Hijacked"
	_, err := s.svc.Update(op.ID, otherNGO.ID, &domain.UpdateOpportunityRequest{Title: &title})
	s.ErrorIs(err, common.ErrForbidden)
}

func (s *OpportunityServiceSuite) TestUpdate_InvalidStatus() {
	op := s.create("Weekend tutoring")

	bad := "archived"
	_, err := s.svc.Update(op.ID, s.ngo.ID, &domain.UpdateOpportunityRequest{Status: &bad})
	s.ErrorIs(err, common.ErrInvalidStatus)
}

func (s *OpportunityServiceSuite) TestDelete() {
	op := s.create("Weekend tutoring")

	s.ErrorIs(s.svc.Delete(op.ID, s.volunteer.ID), common.ErrForbidden)
	s.NoError(s.svc.Delete(op.ID, s.ngo.ID))

	_, err := s.svc.Get(op.ID, 0)
	s.ErrorIs(err, common.ErrOpportunityNotFound)
}

// memCache is an in-memory stand-in for the Redis cache service
type memCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{store: make(map[string][]byte)}
}

func (m *memCache) IsAvailable() bool { return true }

func (m *memCache) Ping(_ context.Context) error { return nil }

func (m *memCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.store[key]
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(data, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = data
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.store, k)
	}
	return nil
}

func (m *memCache) GetOpportunities(_ context.Context, filterKey string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.store[cache.PrefixOpportunities+filterKey]
	if !ok {
		return nil, redis.Nil
	}
	return data, nil
}

func (m *memCache) SetOpportunities(ctx context.Context, filterKey string, data interface{}) error {
	return m.Set(ctx, cache.PrefixOpportunities+filterKey, data, cache.TTLOpportunities)
}

func (m *memCache) InvalidateOpportunities(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.store {
		if strings.HasPrefix(k, cache.PrefixOpportunities) {
			delete(m.store, k)
		}
	}
	return nil
}

type OpportunityCacheSuite struct {
	suite.Suite
	db    *gorm.DB
	cache *memCache
	svc   OpportunityService

	ngo *domain.User
}

func TestOpportunityCacheSuite(t *testing.T) {
	suite.Run(t, new(OpportunityCacheSuite))
}

func (s *OpportunityCacheSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(migration.Run(db))
	s.db = db

	s.cache = newMemCache()
	s.svc = NewOpportunityService(
		repository.NewOpportunityRepository(db),
		repository.NewApplicationRepository(db),
		repository.NewUserRepository(db),
		s.cache,
	)

	s.ngo = &domain.User{Email: "ngo@example.com", Password: "x", Name: "Helping Hands", Role: domain.RoleNGO}
	s.Require().NoError(db.Create(s.ngo).Error)
}

func (s *OpportunityCacheSuite) create(title string) *domain.OpportunityResponse {
	op, err := s.svc.Create(s.ngo.ID, domain.RoleNGO, &domain.CreateOpportunityRequest{
		Title:       title,
		Description: "Help wanted",
		Location:    "Lisbon",
	})
	s.Require().NoError(err)
	return op
}

func (s *OpportunityCacheSuite) TestList_ServedFromCacheUntilWrite() {
	op := s.create("Weekend tutoring")

	filter := domain.OpportunityFilter{Page: 1, PerPage: 20}
	items, _, err := s.svc.List(filter)
	s.Require().NoError(err)
	s.Require().Len(items, 1)

	// A write that bypasses the service is invisible while the listing
	// cache holds
	s.Require().NoError(s.db.Model(&domain.Opportunity{}).Where("id = ?", op.ID).Update("title", "Renamed behind the cache").Error)

	items, _, err = s.svc.List(filter)
	s.Require().NoError(err)
	s.Equal("Weekend tutoring", items[0].Title)

	// A service write invalidates every cached listing
	title := "Weekday tutoring"
	_, err = s.svc.Update(op.ID, s.ngo.ID, &domain.UpdateOpportunityRequest{Title: &title})
	s.Require().NoError(err)

	items, _, err = s.svc.List(filter)
	s.Require().NoError(err)
	s.Equal("Weekday tutoring", items[0].Title)
}

func (s *OpportunityCacheSuite) TestGet_CachedPerPostingUntilWrite() {
	op := s.create("Weekend tutoring")

	got, err := s.svc.Get(op.ID, 0)
	s.Require().NoError(err)
	s.Equal("Weekend tutoring", got.Title)

	s.Require().NoError(s.db.Model(&domain.Opportunity{}).Where("id = ?", op.ID).Update("title", "Renamed behind the cache").Error)

	got, err = s.svc.Get(op.ID, 0)
	s.Require().NoError(err)
	s.Equal("Weekend tutoring", got.Title)

	title := "Weekday tutoring"
	_, err = s.svc.Update(op.ID, s.ngo.ID, &domain.UpdateOpportunityRequest{Title: &title})
	s.Require().NoError(err)

	got, err = s.svc.Get(op.ID, 0)
	s.Require().NoError(err)
	s.Equal("Weekday tutoring", got.Title)
}

func (s *OpportunityCacheSuite) TestGet_OwnerCountsFreshOnCacheHit() {
	op := s.create("Weekend tutoring")

	// Prime the per-posting cache
	_, err := s.svc.Get(op.ID, 0)
	s.Require().NoError(err)

	volunteer := &domain.User{Email: "vol@example.com", Password: "x", Name: "Vera", Role: domain.RoleVolunteer}
	s.Require().NoError(s.db.Create(volunteer).Error)
	s.Require().NoError(s.db.Create(&domain.Application{
		OpportunityID: op.ID,
		VolunteerID:   volunteer.ID,
		Status:        domain.ApplicationPending,
	}).Error)

	asOwner, err := s.svc.Get(op.ID, s.ngo.ID)
	s.Require().NoError(err)
	s.EqualValues(1, asOwner.ApplicantCount)
	s.EqualValues(1, asOwner.PendingCount)
}

func (s *OpportunityServiceSuite) TestListByNGO() {
	op := s.create("Weekend tutoring")
	s.Require().NoError(s.db.Create(&domain.Application{
		OpportunityID: op.ID,
		VolunteerID:   s.volunteer.ID,
		Status:        domain.ApplicationPending,
	}).Error)

	items, err := s.svc.ListByNGO(s.ngo.ID)
	s.NoError(err)
	s.Require().Len(items, 1)
	s.EqualValues(1, items[0].PendingCount)
	s.EqualValues(1, items[0].ApplicantCount)
}
