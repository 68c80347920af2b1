package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFeedback(t *testing.T) {
	o := newTestOrder(t, PaymentMethodCOD)

	_, err := o.AppendFeedback("Is the serum fragrance free?", "user-1", false, t0)
	require.NoError(t, err)
	entry, err := o.AppendFeedback(" Yes, it is. ", "admin-1", true, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "Yes, it is.", entry.Message)

	thread := o.Feedback()
	require.Len(t, thread, 2)
	assert.False(t, thread[0].IsAdmin)
	assert.True(t, thread[1].IsAdmin)
	assert.Equal(t, "admin-1", thread[1].AuthorID)
}

func TestAppendFeedback_OpenOnTerminalOrders(t *testing.T) {
	o := newTestOrder(t, PaymentMethodCOD)
	advanceTo(t, o, OrderStatusCancelled)
	_, err := o.AppendFeedback("refund?", "user-1", false, t0)
	assert.NoError(t, err)
}

func TestAppendFeedback_Blank(t *testing.T) {
	o := newTestOrder(t, PaymentMethodCOD)
	_, err := o.AppendFeedback("   ", "user-1", false, t0)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, o.Feedback())
}
