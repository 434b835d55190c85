package lockfile_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shubham184/fabric-compiler/internal/lockfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireThenCloseAllowsReacquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")

	g, err := lockfile.Acquire(path)
	require.NoError(t, err)
	require.NoError(t, g.Close())

	g2, err := lockfile.Acquire(path)
	require.NoError(t, err)
	require.NoError(t, g2.Close())
}

func TestAcquireFailsWhileAlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.lock")

	g, err := lockfile.Acquire(path)
	require.NoError(t, err)
	defer g.Close()

	_, err = lockfile.Acquire(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lockfile.ErrLockBusy))
}
