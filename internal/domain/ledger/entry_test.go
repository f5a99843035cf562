package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payfast/payfast-core/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestEntry_Reference(t *testing.T) {
	t.Run("DerivedFromCreationInstant", func(t *testing.T) {
		entry := &Entry{
			ID:         uuid.New(),
			TransferID: uuid.New(),
			Direction:  shared.DirectionDebit,
			CreatedAt:  time.UnixMilli(1717171717171),
		}

		// last 8 digits of the millisecond timestamp
		assert.Equal(t, "PF71717171", entry.Reference())
	})

	t.Run("StableForSameEntry", func(t *testing.T) {
		entry := &Entry{CreatedAt: time.Now()}
		assert.Equal(t, entry.Reference(), entry.Reference())
	})

	t.Run("BothSidesShareReference", func(t *testing.T) {
		createdAt := time.Now()
		debit := &Entry{Direction: shared.DirectionDebit, CreatedAt: createdAt}
		credit := &Entry{Direction: shared.DirectionCredit, CreatedAt: createdAt}

		assert.Equal(t, debit.Reference(), credit.Reference())
	})

	t.Run("AlwaysTenCharacters", func(t *testing.T) {
		entry := &Entry{CreatedAt: time.UnixMilli(5)}
		ref := entry.Reference()
		assert.Len(t, ref, 10)
		assert.Equal(t, "PF", ref[:2])
	})
}

func TestErrEntryNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := ErrEntryNotFound{TransferID: id}

	assert.ErrorIs(t, err, ErrEntryNotFound{TransferID: id})
	assert.ErrorIs(t, err, ErrEntryNotFound{}, "empty target matches any transfer")
	assert.NotErrorIs(t, err, ErrEntryNotFound{TransferID: uuid.New()})
}

func TestErrDuplicateEntry_Is(t *testing.T) {
	id := uuid.New()
	err := ErrDuplicateEntry{TransferID: id}

	assert.ErrorIs(t, err, ErrDuplicateEntry{TransferID: id})
	assert.ErrorIs(t, err, ErrDuplicateEntry{})
	assert.NotErrorIs(t, err, ErrDuplicateEntry{TransferID: uuid.New()})
}
