package booking

import (
	"testing"

	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking(t *testing.T) {
	sessionID := uuid.New()
	clientID := uuid.New()

	bk, err := NewBooking(sessionID, clientID)
	require.NoError(t, err)

	assert.Equal(t, sessionID, bk.SessionID())
	assert.Equal(t, clientID, bk.ClientID())
	assert.Equal(t, StatusConfirmed, bk.Status())
	assert.False(t, bk.BookedAt().IsZero())
	assert.EqualValues(t, 1, bk.Version())
}

func TestNewBooking_Validation(t *testing.T) {
	_, err := NewBooking(uuid.Nil, uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))

	_, err = NewBooking(uuid.New(), uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestBooking_Cancel(t *testing.T) {
	bk, err := NewBooking(uuid.New(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, bk.Cancel("changed plans"))
	assert.Equal(t, StatusCancelled, bk.Status())
	assert.Equal(t, "changed plans", bk.CancelReason())
	require.NotNil(t, bk.CancelledAt())

	// A second cancel reports the distinct already-cancelled reason.
	err = bk.Cancel("again")
	require.Error(t, err)
	assert.Equal(t, domain.CodeAlreadyCancelled, domain.CodeOf(err))
	assert.Equal(t, "changed plans", bk.CancelReason())
}

func TestBooking_Attendance(t *testing.T) {
	t.Run("attended", func(t *testing.T) {
		bk, err := NewBooking(uuid.New(), uuid.New())
		require.NoError(t, err)

		require.NoError(t, bk.MarkAttended())
		assert.Equal(t, StatusAttended, bk.Status())
		require.NotNil(t, bk.MarkedAt())
	})

	t.Run("no show", func(t *testing.T) {
		bk, err := NewBooking(uuid.New(), uuid.New())
		require.NoError(t, err)

		require.NoError(t, bk.MarkNoShow())
		assert.Equal(t, StatusNoShow, bk.Status())
	})

	t.Run("attendance is terminal", func(t *testing.T) {
		bk, err := NewBooking(uuid.New(), uuid.New())
		require.NoError(t, err)
		require.NoError(t, bk.MarkAttended())

		err = bk.Cancel("")
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))

		err = bk.MarkNoShow()
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})

	t.Run("cancelled bookings cannot be marked", func(t *testing.T) {
		bk, err := NewBooking(uuid.New(), uuid.New())
		require.NoError(t, err)
		require.NoError(t, bk.Cancel(""))

		err = bk.MarkAttended()
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})
}

func TestBookingStatus(t *testing.T) {
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusAttended))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusNoShow))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusAttended.CanTransitionTo(StatusCancelled))

	assert.True(t, StatusConfirmed.ConsumesSeat())
	assert.False(t, StatusCancelled.ConsumesSeat())
	assert.False(t, StatusAttended.ConsumesSeat())
	assert.False(t, StatusNoShow.ConsumesSeat())

	status, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, status)

	_, err = ParseBookingStatus("pending")
	require.Error(t, err)
}
