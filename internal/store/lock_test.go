package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bazarr-bulk/bb/internal/apperrors"
)

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.db")

	first, err := AcquireLock(path)
	require.NoError(t, err)
	require.Equal(t, path+".lock", first.Path())

	_, err = AcquireLock(path)
	require.ErrorIs(t, err, apperrors.ErrStoreLocked)

	require.NoError(t, first.Release())

	again, err := AcquireLock(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())

	var nilLock *Lock
	require.NoError(t, nilLock.Release())
}
