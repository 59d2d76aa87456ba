package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/repairshop/backend/internal/domain/finance"
	"github.com/repairshop/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDomainSerializer() *EventSerializer {
	s := NewEventSerializer()
	RegisterDomainEvents(s)
	return s
}

func TestRegisterDomainEvents(t *testing.T) {
	s := newDomainSerializer()

	assert.Equal(t, []string{
		invoicing.EventTypeInvoiceStatusSynchronized,
		finance.EventTypePaymentRecorded,
		finance.EventTypePaymentReverted,
	}, s.RegisteredTypes())
}

func TestEventSerializer_PaymentRecordedSurvivesTheOutbox(t *testing.T) {
	s := newDomainSerializer()
	movement := &finance.MoneyMovement{Amount: decimal.RequireFromString("150.50")}
	movement.ID = uuid.New()
	location := &finance.MoneyLocation{Name: "Main cash desk"}
	location.ID = uuid.New()
	original := finance.NewPaymentRecordedEvent(uuid.New(), uuid.New(), movement, location, "cash", uuid.New())

	payload, err := s.Serialize(original)
	require.NoError(t, err)
	decoded, err := s.Deserialize(finance.EventTypePaymentRecorded, payload)
	require.NoError(t, err)

	got, ok := decoded.(*finance.PaymentRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.Equal(t, original.AggregateID(), got.AggregateID())
	assert.Equal(t, "Main cash desk", got.LocationName)
	assert.True(t, got.Amount.Equal(movement.Amount))
	assert.Equal(t, "cash", got.Method)
}

func TestEventSerializer_Errors(t *testing.T) {
	s := newDomainSerializer()

	_, err := s.Deserialize("OrderShipped", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = s.Deserialize(finance.EventTypePaymentRecorded, []byte(`{not json`))
	assert.Error(t, err)

	assert.True(t, s.IsRegistered(finance.EventTypePaymentReverted))
	assert.False(t, s.IsRegistered("OrderShipped"))
}

func TestEventSerializer_RefusesUnregisteredEvents(t *testing.T) {
	s := NewEventSerializer()
	evt := paymentEvent()

	_, err := s.Serialize(evt)
	assert.ErrorContains(t, err, "unknown event type")

	RegisterEvent[finance.PaymentRecordedEvent](s, finance.EventTypePaymentRecorded)
	_, err = s.Serialize(evt)
	assert.NoError(t, err)
}
