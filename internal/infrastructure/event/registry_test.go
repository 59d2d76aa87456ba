package event

import (
	"testing"

	"github.com/repairshop/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	recorded := testutil.NewMockEventHandler()
	both := testutil.NewMockEventHandler()
	wildcard := testutil.NewMockEventHandler()

	r.Register(recorded, "PaymentRecorded")
	r.Register(both, "PaymentRecorded", "PaymentReverted")
	r.Register(wildcard)

	assert.Len(t, r.Handlers("PaymentRecorded"), 3)
	assert.Len(t, r.Handlers("PaymentReverted"), 2)
	assert.Len(t, r.Handlers("InvoiceStatusSynchronized"), 1)
	assert.Equal(t, 3, r.Len())

	r.Unregister(both)
	assert.Len(t, r.Handlers("PaymentReverted"), 1)
	assert.Equal(t, 2, r.Len())

	r.Unregister(wildcard)
	assert.Empty(t, r.Handlers("PaymentReverted"))
}
