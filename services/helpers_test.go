package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"protocol-review-api/models"
	"protocol-review-api/workflow"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	db          *gorm.DB
	locks       *ProtocolLocks
	versions    *VersionStore
	ledger      *StatusLedger
	assignments *AssignmentRegistry
	comments    *CommentThread
	engine      *LifecycleEngine
	protocols   *ProtocolService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	clk := newFakeClock()
	locks := NewProtocolLocks()

	env := &testEnv{
		db:          db,
		locks:       locks,
		versions:    NewVersionStore(db, locks),
		ledger:      NewStatusLedger(db),
		assignments: NewAssignmentRegistry(db, locks),
		comments:    NewCommentThread(db),
	}
	env.versions.now = clk.Now
	env.assignments.now = clk.Now
	env.comments.now = clk.Now

	env.engine = NewLifecycleEngine(db, workflow.NewValidator(nil), env.versions, env.ledger, env.assignments, locks)
	env.engine.now = clk.Now

	env.protocols = NewProtocolService(db, env.ledger, env.assignments, locks, workflow.ContentDefaults{})
	env.protocols.now = clk.Now
	return env
}

func createUser(t *testing.T, db *gorm.DB, email, roles string) models.User {
	t.Helper()
	user := models.User{UserFname: "Test", UserLname: "User", Email: email, Roles: roles}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedUsers creates bare accounts with fixed ids for tests that refer to users by number.
func seedUsers(t *testing.T, db *gorm.DB, ids ...int) {
	t.Helper()
	for _, id := range ids {
		user := models.User{UserID: id, UserFname: "Test", Email: fmt.Sprintf("user%d@example.edu", id)}
		require.NoError(t, db.Create(&user).Error)
	}
}

func completeContent() models.ProtocolContent {
	contact := func(name string) models.ContactBlock {
		return models.ContactBlock{
			Name:       name,
			Department: "Physiology",
			Email:      fmt.Sprintf("%s@example.edu", name),
			Phone:      "043-000-000",
		}
	}
	return models.ProtocolContent{
		Title:     "Effects of diet on murine liver enzymes",
		StartDate: "2024-04-01",
		EndDate:   "2025-03-31",
		Classification: models.Classification{
			Category:      "basic",
			ResearchType:  "experimental",
			FundingSource: "internal",
		},
		PrincipalInvestigator: contact("pi"),
		Sponsor:               contact("sponsor"),
		Facility:              models.Facility{Name: "Animal Lab", Building: "B2", Room: "201"},
		Species:               "Mus musculus",
		AnimalCount:           24,
	}
}

func (env *testEnv) createProtocol(t *testing.T, ownerID int, content models.ProtocolContent) *models.Protocol {
	t.Helper()
	protocol, err := env.protocols.Create(context.Background(), ownerID, content)
	require.NoError(t, err)
	return protocol
}

var (
	adminActor    = Actor{ID: 900, Roles: []models.Role{models.RoleAdmin}}
	chairActor    = Actor{ID: 901, Roles: []models.Role{models.RoleChair}}
	reviewerActor = Actor{ID: 902, Roles: []models.Role{models.RoleReviewer}}
)

// moveTo drives a freshly created protocol to status along a valid path.
func (env *testEnv) moveTo(t *testing.T, protocol *models.Protocol, status models.ProtocolStatus) {
	t.Helper()
	ctx := context.Background()

	step := func(target models.ProtocolStatus, actor Actor) {
		t.Helper()
		_, err := env.engine.RequestTransition(ctx, TransitionRequest{ProtocolID: protocol.ProtocolID, Target: target, Actor: actor})
		require.NoError(t, err)
	}

	_, err := env.engine.Submit(ctx, protocol.ProtocolID, protocol.OwnerID)
	require.NoError(t, err)
	if status == models.StatusSubmitted {
		return
	}
	step(models.StatusPreReview, adminActor)
	if status == models.StatusPreReview {
		return
	}
	step(models.StatusUnderReview, chairActor)
	if status == models.StatusUnderReview {
		return
	}
	step(status, reviewerActor)
}
