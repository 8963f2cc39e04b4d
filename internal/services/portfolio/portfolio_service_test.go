package portfolio

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/botwerk/agency-backend/internal/models"
	"github.com/botwerk/agency-backend/internal/services/referral"
)

func newTestService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PortfolioProject{}))

	return NewService(db, zap.NewNop())
}

func TestCreateDerivesSlug(t *testing.T) {
	svc := newTestService(t)

	project, err := svc.Create(Input{
		Title:        "Shop Bot for Flower Store",
		Description:  "Telegram shop with payments",
		Cost:         "60000",
		Technologies: "Go, Postgres",
	})
	require.NoError(t, err)

	assert.Equal(t, "shop-bot-for-flower-store", project.Slug)

	bySlug, err := svc.ProjectBySlug("shop-bot-for-flower-store")
	require.NoError(t, err)
	assert.Equal(t, project.ID, bySlug.ID)
}

func TestUpdateRegeneratesSlug(t *testing.T) {
	svc := newTestService(t)

	project, err := svc.Create(Input{Title: "Old Title"})
	require.NoError(t, err)

	updated, err := svc.Update(project.ID, Input{Title: "New Title"})
	require.NoError(t, err)
	assert.Equal(t, "new-title", updated.Slug)

	_, err = svc.ProjectBySlug("old-title")
	assert.ErrorIs(t, err, referral.ErrNotFound)
}

func TestProjectsList(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(Input{Title: "First"})
	require.NoError(t, err)
	_, err = svc.Create(Input{Title: "Second"})
	require.NoError(t, err)

	projects, err := svc.Projects(0)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestDeleteProject(t *testing.T) {
	svc := newTestService(t)

	project, err := svc.Create(Input{Title: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(project.ID))

	_, err = svc.Project(project.ID)
	assert.ErrorIs(t, err, referral.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(uuid.New()), referral.ErrNotFound)
}
