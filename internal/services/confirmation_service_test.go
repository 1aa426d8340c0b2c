package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusstay_echo/internal/models"
	"campusstay_echo/internal/testutil"
)

func TestConfirmLevyPayment(t *testing.T) {
	f := newLevyFixture(t, 5000)
	fixed := time.Now().UTC().Truncate(time.Second)
	f.svc.now = func() time.Time { return fixed }

	_, err := f.svc.VerifyPayment(context.Background(), ownerPrincipal(f.owner), f.request("50"))
	require.NoError(t, err)

	svc := NewConfirmationService(f.db, f.gateway)
	svc.now = func() time.Time { return fixed.Add(time.Hour) }

	conf, err := svc.Confirm(context.Background(), ownerPrincipal(f.owner), f.intent.Reference)
	require.NoError(t, err)
	require.NotNil(t, conf.LevyPayment)
	assert.Nil(t, conf.BookingPayment)
	require.Len(t, conf.Rooms, 1)
	assert.Equal(t, "R1", conf.Rooms[0].Room.RoomNumber)
	assert.Equal(t, "Hall A", conf.Rooms[0].PropertyName)
	assert.Equal(t, 364, conf.Rooms[0].DaysRemaining)
	assert.Len(t, f.gateway.calls, 2, "confirmation checks the gateway again")
}

func TestConfirmFailsClosed(t *testing.T) {
	f := newLevyFixture(t, 5000)
	_, err := f.svc.VerifyPayment(context.Background(), ownerPrincipal(f.owner), f.request("50"))
	require.NoError(t, err)
	svc := NewConfirmationService(f.db, f.gateway)
	ctx := context.Background()

	_, err = svc.Confirm(ctx, ownerPrincipal(f.owner), "")
	requireKind(t, err, KindValidation)

	_, err = svc.Confirm(ctx, ownerPrincipal(f.owner), "LEVY_0_missing")
	requireKind(t, err, KindNotFound)

	other := testutil.CreateUser(t, f.db, "other@example.com", models.RolePropertyOwner)
	_, err = svc.Confirm(ctx, ownerPrincipal(other), f.intent.Reference)
	requireKind(t, err, KindNotFound)

	admin := testutil.CreateUser(t, f.db, "admin@example.com", models.RoleAdmin)
	_, err = svc.Confirm(ctx, principalFor(admin), f.intent.Reference)
	requireKind(t, err, KindAuthorization)

	_, err = svc.Confirm(ctx, nil, f.intent.Reference)
	requireKind(t, err, KindUnauthenticated)

	f.gateway.status = "reversed"
	_, err = svc.Confirm(ctx, ownerPrincipal(f.owner), f.intent.Reference)
	requireKind(t, err, KindPaymentFailed)

	f.gateway.status = "success"
	f.gateway.amount = 100
	_, err = svc.Confirm(ctx, ownerPrincipal(f.owner), f.intent.Reference)
	requireKind(t, err, KindPaymentFailed)

	f.gateway.err = ErrGatewayTimeout
	_, err = svc.Confirm(ctx, ownerPrincipal(f.owner), f.intent.Reference)
	requireKind(t, err, KindGatewayTimeout)
}

func TestConfirmCashBookingSkipsGateway(t *testing.T) {
	f := newBookingFixture(t, 1)
	res, err := f.svc.RecordCashPayment(context.Background(), ownerPrincipal(f.owner), f.input("ama@example.com"))
	require.NoError(t, err)

	var student models.User
	require.NoError(t, f.db.First(&student, res.Booking.StudentID).Error)

	gw := newFakeGateway(0)
	svc := NewConfirmationService(f.db, gw)
	conf, err := svc.Confirm(context.Background(), principalFor(student), res.Payment.TransactionID)
	require.NoError(t, err)
	require.NotNil(t, conf.BookingPayment)
	assert.Equal(t, "R1", conf.BookingPayment.Booking.Room.RoomNumber)
	assert.Equal(t, "Hall A", conf.BookingPayment.Booking.Property.Name)
	assert.Empty(t, gw.calls)

	// a different student cannot see it
	other := testutil.CreateUser(t, f.db, "kofi@example.com", models.RoleStudent)
	_, err = svc.Confirm(context.Background(), principalFor(other), res.Payment.TransactionID)
	requireKind(t, err, KindNotFound)
}
