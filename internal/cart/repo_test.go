package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mfigueroa/shopsync-backend/pkg/db"
	"github.com/mfigueroa/shopsync-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CartItem{}))
	t.Cleanup(func() {
		sqlDB, err := conn.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func item(userID uuid.UUID, name string, position int) models.CartItem {
	return models.CartItem{
		UserID:    userID,
		ProductID: uuid.New(),
		Name:      name,
		Image:     "/img/" + name + ".jpg",
		Price:     decimal.NewFromInt(10),
		Quantity:  1,
		Position:  position,
	}
}

func TestRepositoryReplaceRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	client := db.FromGorm(conn)
	ctx := context.Background()
	userID := uuid.New()

	first := []models.CartItem{item(userID, "keyboard", 0), item(userID, "mouse", 1)}
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		scoped := repo.WithTx(tx)
		if err := scoped.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return scoped.CreateAll(ctx, first)
	})
	require.NoError(t, err)

	got, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "keyboard", got[0].Name)
	assert.Equal(t, "mouse", got[1].Name)

	// wholesale replacement drops the old rows
	replacement := []models.CartItem{item(userID, "desk", 0)}
	err = client.WithTx(ctx, func(tx *gorm.DB) error {
		scoped := repo.WithTx(tx)
		if err := scoped.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return scoped.CreateAll(ctx, replacement)
	})
	require.NoError(t, err)

	got, err = repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "desk", got[0].Name)
}

func TestRepositoryScopesByUser(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, repo.CreateAll(ctx, []models.CartItem{item(alice, "keyboard", 0)}))
	require.NoError(t, repo.CreateAll(ctx, []models.CartItem{item(bob, "mouse", 0)}))

	require.NoError(t, repo.DeleteByUser(ctx, alice))

	got, err := repo.ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
