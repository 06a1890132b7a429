package repository

import (
	"errors"
	"sync"
	"testing"

	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/migration"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ApplicationRepoSuite struct {
	suite.Suite
	db   *gorm.DB
	repo ApplicationRepository
}

func TestApplicationRepoSuite(t *testing.T) {
	suite.Run(t, new(ApplicationRepoSuite))
}

func (s *ApplicationRepoSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(migration.Run(db))

	// Single connection so concurrent writers hit the same in-memory
	// database instead of per-connection copies.
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.db = db
	s.repo = NewApplicationRepository(db)
}

func (s *ApplicationRepoSuite) TestCreate_DuplicatePairRejected() {
	s.Require().NoError(s.repo.Create(&domain.Application{
		OpportunityID: 1,
		VolunteerID:   2,
		Status:        domain.ApplicationPending,
	}))

	err := s.repo.Create(&domain.Application{
		OpportunityID: 1,
		VolunteerID:   2,
		Status:        domain.ApplicationPending,
	})
	s.ErrorIs(err, common.ErrDuplicateApplication)
}

// Two submissions racing the same (opportunity, volunteer) pair: the
// composite unique index lets exactly one insert land, and the loser's
// driver error maps to the duplicate sentinel.
func (s *ApplicationRepoSuite) TestCreate_ConcurrentPairExactlyOneWins() {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.repo.Create(&domain.Application{
				OpportunityID: 1,
				VolunteerID:   2,
				Status:        domain.ApplicationPending,
			})
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, common.ErrDuplicateApplication):
			losses++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, wins)
	s.Equal(1, losses)

	count, err := s.repo.CountByOpportunity(1, "")
	s.NoError(err)
	s.EqualValues(1, count)
}

func (s *ApplicationRepoSuite) TestCreate_DifferentVolunteersBothLand() {
	s.Require().NoError(s.repo.Create(&domain.Application{
		OpportunityID: 1,
		VolunteerID:   2,
		Status:        domain.ApplicationPending,
	}))
	s.Require().NoError(s.repo.Create(&domain.Application{
		OpportunityID: 1,
		VolunteerID:   3,
		Status:        domain.ApplicationPending,
	}))

	count, err := s.repo.CountByOpportunity(1, "")
	s.NoError(err)
	s.EqualValues(2, count)
}
