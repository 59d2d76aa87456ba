package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	custom := NewDomainError("NOT_FOUND", "invoice 42 not found")

	assert.ErrorIs(t, custom, ErrNotFound)
	assert.NotErrorIs(t, custom, ErrInvalidInput)
}

func TestDomainError_Withf(t *testing.T) {
	err := ErrInvalidState.Withf("report %d is archived", 7)

	assert.Equal(t, "report 7 is archived", err.Error())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "Operation not allowed in current state", ErrInvalidState.Message)
}
