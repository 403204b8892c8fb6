//go:build linux

package process_test

import (
	"runtime"
	"testing"

	"github.com/brickingsoft/solo/pkg/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinThread(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	before, err := process.Affinity()
	require.NoError(t, err)
	require.NotEmpty(t, before)

	restore, err := process.PinThread(len(before) - 1)
	require.NoError(t, err)
	pinned, err := process.Affinity()
	require.NoError(t, err)
	assert.Equal(t, []int{before[len(before)-1]}, pinned)

	_, err = process.PinThread(-1)
	assert.Error(t, err)

	require.NoError(t, restore())
	after, err := process.Affinity()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
