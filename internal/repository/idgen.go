package repository

import (
	"errors"
	"math/rand"

	"gorm.io/gorm"
)

const (
	idMin        = 100000
	idMax        = 999999
	idGenRetries = 20
)

var (
	ErrIDSpaceExhausted = errors.New("no free identifier found after retries")
	ErrMalformedID      = errors.New("identifier must be a 6-digit integer")
)

// IDAllocator hands out the fixed-width numeric identifiers every
// collection uses as primary keys. It is a probabilistic allocator, not a
// counter: it draws random candidates and checks them against the table,
// so deletions leave no holes to compact.
type IDAllocator struct {
	db *gorm.DB
}

func NewIDAllocator(db *gorm.DB) *IDAllocator {
	return &IDAllocator{db}
}

// Allocate returns a free 6-digit identifier for the entity's table,
// retrying under collision up to a fixed bound.
func (a *IDAllocator) Allocate(entity interface{}) (int, error) {
	for i := 0; i < idGenRetries; i++ {
		candidate := idMin + rand.Intn(idMax-idMin+1)

		var count int64
		if err := a.db.Model(entity).Where("id = ?", candidate).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return candidate, nil
		}
	}
	return 0, ErrIDSpaceExhausted
}

// Ensure validates a caller-supplied identifier or allocates one when it is
// absent (zero). A supplied id is reused as-is without a uniqueness
// re-check; a duplicate surfaces as a unique violation at insert time.
func (a *IDAllocator) Ensure(entity interface{}, supplied int) (int, error) {
	if supplied == 0 {
		return a.Allocate(entity)
	}
	if !IsWellFormedID(supplied) {
		return 0, ErrMalformedID
	}
	return supplied, nil
}

// IsWellFormedID reports whether id fits the 6-digit identifier space.
func IsWellFormedID(id int) bool {
	return id >= idMin && id <= idMax
}
