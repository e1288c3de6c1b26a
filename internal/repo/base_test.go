package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID    int64
	Color string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)
	assert.Same(t, db, base.db)
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx)
	require.NotNil(t, withCtx.Statement)
	assert.Equal(t, ctx, withCtx.Statement.Context)

	assert.Same(t, db, base.DB(nil))
}

func TestBaseWithTx(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)
	assert.Same(t, db, base.WithTx(nil).db)

	tx := db.Begin()
	defer tx.Rollback()
	assert.Same(t, tx, base.WithTx(tx).db)
}

func TestExistsAndCountWhere(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&widget{Color: fmt.Sprintf("c%d", i%2)}).Error)
	}

	ok, err := base.Exists(ctx, "widgets", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = base.Exists(ctx, "widgets", 99)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := base.CountWhere(ctx, "widgets", "color", "c0")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", gorm.ErrRecordNotFound)))
	assert.False(t, IsNotFound(nil))
}
