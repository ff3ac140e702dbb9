package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalInvoiceLockerRejectsSecondHolder(t *testing.T) {
	locker := NewLocalInvoiceLocker()
	id := uuid.New()

	release, err := locker.Acquire(context.Background(), id)
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), id)
	assert.ErrorIs(t, err, ErrLockNotObtained)

	// other invoices are independent
	releaseOther, err := locker.Acquire(context.Background(), uuid.New())
	require.NoError(t, err)
	releaseOther()

	release()
	release() // double release is harmless

	again, err := locker.Acquire(context.Background(), id)
	require.NoError(t, err)
	again()
}
