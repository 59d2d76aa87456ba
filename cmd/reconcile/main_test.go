package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/repairshop/backend/internal/application/reconciliation"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", want: 0},
		{name: "lock held", err: fmt.Errorf("fix: %w", reconciliation.ErrReconciliationLocked), want: 3},
		{name: "failure", err: errors.New("connection refused"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestReconcile_ReturnsCodeInsteadOfExiting(t *testing.T) {
	assert.Equal(t, 2, reconcile(nil), "missing command")
	assert.Equal(t, 1, reconcile([]string{"rebuild"}), "unknown command")
}
