package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(StateIdle, StateGrantRequested))
	assert.True(t, canTransition(StateGrantIssued, StateCompleted))
	assert.True(t, canTransition(StateTransferInProgress, StateFailed))
	assert.False(t, canTransition(StateIdle, StateTransferInProgress))
	assert.False(t, canTransition(StateCompleted, StateFailed))
	assert.False(t, canTransition(StateFailed, StateGrantRequested))
}

func TestTracker_IgnoresMovesOutOfTerminalStates(t *testing.T) {
	var got []Transition
	tr := &tracker{op: OpDownload, object: "o", observer: func(x Transition) { got = append(got, x) }}

	tr.to(StateGrantRequested)
	f := tr.fail(&Failure{Category: CategoryAccess, Message: "boom"})
	tr.to(StateCompleted)

	assert.Len(t, got, 2)
	assert.Equal(t, StateFailed, tr.state)
	assert.True(t, tr.state.Terminal())
	assert.True(t, errors.Is(got[1].Err, f))
	assert.Equal(t, "GrantRequested", got[0].To.String())
}

func TestCategoryOf(t *testing.T) {
	c, ok := CategoryOf(&Failure{Category: CategoryNotFound})
	assert.True(t, ok)
	assert.Equal(t, CategoryNotFound, c)

	_, ok = CategoryOf(errors.New("plain"))
	assert.False(t, ok)
}
