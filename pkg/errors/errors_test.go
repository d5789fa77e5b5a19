package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/bricktools/brickpick/pkg/errors"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestFetchError(t *testing.T) {
	t.Run("wrapped transport failure", func(t *testing.T) {
		base := errors.New("connection refused")
		err := pkgerrors.NewFetchError("60393-1", base)
		assert.Equal(t, "fetching set 60393-1 failed: connection refused", err.Error())
		assert.True(t, pkgerrors.IsFetchFailed(err))
		assert.True(t, errors.Is(err, base))
	})

	t.Run("status code", func(t *testing.T) {
		err := &pkgerrors.FetchError{
			SetNumber:  "60393-1",
			StatusCode: 404,
			Message:    "set not found",
		}
		assert.Equal(t, "fetching set 60393-1 failed (status 404): set not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrFetchFailed))
		assert.False(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		err := &pkgerrors.FetchError{SetNumber: "60393-1", StatusCode: 429, Message: "slow down"}
		assert.True(t, pkgerrors.IsFetchFailed(err))
		assert.True(t, pkgerrors.IsRateLimited(err))
	})

	t.Run("survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("building index: %w", pkgerrors.NewFetchError("10030-1", errors.New("timeout")))
		assert.True(t, pkgerrors.IsFetchFailed(err))
	})
}

func TestSourceError(t *testing.T) {
	base := errors.New("no such file")
	err := &pkgerrors.SourceError{Source: "drawers.csv", Err: base}
	assert.Equal(t, "source drawers.csv unavailable: no such file", err.Error())
	assert.True(t, pkgerrors.IsSourceUnavailable(err))
	assert.True(t, errors.Is(err, base))
	assert.False(t, pkgerrors.IsFetchFailed(err))
}

func TestCacheWriteError(t *testing.T) {
	base := errors.New("disk full")
	err := &pkgerrors.CacheWriteError{SetNumber: "60393-1", Path: "/tmp/60393-1.json", Err: base}
	assert.Equal(t, "writing cache entry for set 60393-1 to /tmp/60393-1.json: disk full", err.Error())
	assert.True(t, pkgerrors.IsCacheWrite(err))
	assert.True(t, errors.Is(err, base))
}

func TestCorruptError(t *testing.T) {
	base := errors.New("unexpected end of JSON input")
	err := &pkgerrors.CorruptError{Path: "found.json", Err: base}
	assert.Equal(t, "persisted file found.json is corrupt: unexpected end of JSON input", err.Error())
	assert.True(t, pkgerrors.IsCorrupt(err))
	assert.False(t, pkgerrors.IsCacheWrite(err))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("quantity", -3, "quantity must be positive")
		assert.Equal(t, "validation failed for field quantity: quantity must be positive", err.Error())
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty row"}
		assert.Equal(t, "validation failed: empty row", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})
}
