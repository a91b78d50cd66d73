package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvent_AcceptingRegistrations(t *testing.T) {
	cases := []struct {
		status    string
		accepting bool
	}{
		{EventStatusOpen, true},
		{EventStatusFull, true}, // full events still take waitlist entries
		{EventStatusClosed, false},
		{EventStatusCancelled, false},
	}

	for _, c := range cases {
		e := Event{Status: c.status}
		assert.Equal(t, c.accepting, e.AcceptingRegistrations(), "status %q", c.status)
	}
}

func TestRegistration_ConsumesCapacity(t *testing.T) {
	assert.True(t, (&Registration{Status: RegistrationPending}).ConsumesCapacity())
	assert.True(t, (&Registration{Status: RegistrationApproved}).ConsumesCapacity())
	assert.False(t, (&Registration{Status: RegistrationWaitlisted}).ConsumesCapacity())
	assert.False(t, (&Registration{Status: RegistrationRejected}).ConsumesCapacity())
}

func TestPaymentMethodHelpers(t *testing.T) {
	assert.True(t, IsManualMethod(MethodManualBkash))
	assert.True(t, IsManualMethod(MethodManualNagad))
	assert.False(t, IsManualMethod(MethodGatewayBkash))

	assert.True(t, IsGatewayMethod(MethodGatewayBkash))
	assert.True(t, IsGatewayMethod(MethodGatewayNagad))
	assert.False(t, IsGatewayMethod(MethodManualNagad))

	assert.True(t, ValidMethod(MethodManualBkash))
	assert.False(t, ValidMethod("credit_card"))
}
