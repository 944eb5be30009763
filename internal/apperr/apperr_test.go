package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappersKeepTheKindInTheChain(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{NotFoundf("user %d", 7), ErrNotFound},
		{Forbiddenf("user %d may not act", 7), ErrForbidden},
		{Conflictf("record is %s", "accepted"), ErrConflict},
		{SelfReferencef("same user"), ErrSelfReference},
		{Internalf("db: %v", errors.New("timeout")), ErrInternal},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, tt.err, tt.kind)
	}

	// A second layer of wrapping must not break the match.
	wrapped := fmt.Errorf("handling request: %w", Conflictf("stale"))
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.NotErrorIs(t, wrapped, ErrForbidden)
}

func TestExpected(t *testing.T) {
	assert.True(t, Expected(NotFoundf("x")))
	assert.True(t, Expected(Forbiddenf("x")))
	assert.True(t, Expected(Conflictf("x")))
	assert.True(t, Expected(SelfReferencef("x")))
	assert.False(t, Expected(Internalf("x")))
	assert.False(t, Expected(errors.New("plain")))
}
