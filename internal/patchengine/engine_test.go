package patchengine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunResolveVerifyApplyHappyPath(t *testing.T) {
	out, err := RunResolveVerifyApply(
		func() (int, error) { return 2, nil },
		func(n int) (int, error) { return n * 3, nil },
		func(n int) (string, error) { return "result", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "result", out)
}

func TestRunResolveVerifyApplyShortCircuitsOnResolveError(t *testing.T) {
	applyCalled := false
	_, err := RunResolveVerifyApply(
		func() (int, error) { return 0, errors.New("boom") },
		func(n int) (int, error) { return n, nil },
		func(n int) (string, error) { applyCalled = true; return "", nil },
	)
	require.Error(t, err)
	assert.False(t, applyCalled)
}

func TestRunResolveVerifyApplyShortCircuitsOnVerifyError(t *testing.T) {
	applyCalled := false
	_, err := RunResolveVerifyApply(
		func() (int, error) { return 1, nil },
		func(n int) (int, error) { return 0, errors.New("precondition failed") },
		func(n int) (string, error) { applyCalled = true; return "", nil },
	)
	require.Error(t, err)
	assert.False(t, applyCalled)
}
