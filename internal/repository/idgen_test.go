package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-storefront-api/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// One in-memory sqlite database per test; a second pooled connection
	// would see an empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Product{}, &model.Variant{}))
	return db
}

func TestAllocateReturnsSixDigitID(t *testing.T) {
	ids := NewIDAllocator(newTestDB(t))

	for i := 0; i < 50; i++ {
		id, err := ids.Allocate(&model.Product{})
		require.NoError(t, err)
		assert.True(t, IsWellFormedID(id), "got %d", id)
	}
}

func TestAllocateAvoidsExistingIDs(t *testing.T) {
	db := newTestDB(t)
	ids := NewIDAllocator(db)

	require.NoError(t, db.Create(&model.Product{
		BaseModel: model.BaseModel{ID: 100001},
		Name:      "taken",
		Slug:      "taken",
	}).Error)

	for i := 0; i < 50; i++ {
		id, err := ids.Allocate(&model.Product{})
		require.NoError(t, err)
		assert.NotEqual(t, 100001, id)
	}
}

func TestEnsure(t *testing.T) {
	ids := NewIDAllocator(newTestDB(t))

	// Supplied well-formed id passes through untouched
	id, err := ids.Ensure(&model.Product{}, 123456)
	require.NoError(t, err)
	assert.Equal(t, 123456, id)

	// Absent id gets allocated
	id, err = ids.Ensure(&model.Product{}, 0)
	require.NoError(t, err)
	assert.True(t, IsWellFormedID(id))

	// Malformed ids are rejected, not silently replaced
	_, err = ids.Ensure(&model.Product{}, 99999)
	assert.ErrorIs(t, err, ErrMalformedID)
	_, err = ids.Ensure(&model.Product{}, 1000000)
	assert.ErrorIs(t, err, ErrMalformedID)
}
