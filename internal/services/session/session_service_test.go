package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/botwerk/agency-backend/internal/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserSession{}))

	return NewService(db, zap.NewNop()), db
}

func TestSaveAndGet(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Save(111, "order:awaiting_budget", models.JSON{"project_name": "Shop bot"})
	require.NoError(t, err)

	sess, err := svc.Get(111)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "order:awaiting_budget", sess.CurrentState)
	assert.Equal(t, "Shop bot", sess.StateData["project_name"])
}

func TestSaveUpserts(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, svc.Save(111, "order:awaiting_budget", nil))
	require.NoError(t, svc.Save(111, "order:awaiting_deadlines", models.JSON{"budget": "40000"}))

	sess, err := svc.Get(111)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "order:awaiting_deadlines", sess.CurrentState)

	var count int64
	require.NoError(t, db.Model(&models.UserSession{}).Where("user_id = ?", 111).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetMissingReturnsNil(t *testing.T) {
	svc, _ := newTestService(t)

	sess, err := svc.Get(999)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Save(111, "order:awaiting_budget", nil))
	require.NoError(t, svc.Delete(111))

	sess, err := svc.Get(111)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestDeleteStale(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, svc.Save(111, "stale", nil))
	require.NoError(t, svc.Save(222, "fresh", nil))

	// Age the first session past the cutoff
	require.NoError(t, db.Model(&models.UserSession{}).
		Where("user_id = ?", 111).
		Update("last_activity", time.Now().Add(-48*time.Hour)).Error)

	removed, err := svc.DeleteStale(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	sess, err := svc.Get(222)
	require.NoError(t, err)
	assert.NotNil(t, sess)
}
