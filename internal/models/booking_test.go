package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBookingStatusTransitions(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCompleted, BookingCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingConfirmed.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.True(t, BookingCompleted.Terminal())
}

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPending, PaymentRefunded, false},
		{PaymentPaid, PaymentRefunded, true},
		{PaymentPaid, PaymentPending, false},
		// A failed payment may be retried.
		{PaymentFailed, PaymentPending, true},
		{PaymentFailed, PaymentPaid, false},
		{PaymentRefunded, PaymentPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestNightsAndPricePerNight(t *testing.T) {
	checkIn := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	b := Booking{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 4), TotalPrice: 400}
	assert.Equal(t, 4, b.Nights())
	assert.InDelta(t, 100.0, b.PricePerNight(), 0.001)

	// Partial day rounds up.
	b = Booking{CheckIn: checkIn, CheckOut: checkIn.Add(36 * time.Hour), TotalPrice: 300}
	assert.Equal(t, 2, b.Nights())
	assert.InDelta(t, 150.0, b.PricePerNight(), 0.001)

	// Degenerate range never divides by zero.
	b = Booking{CheckIn: checkIn, CheckOut: checkIn, TotalPrice: 300}
	assert.Equal(t, 0, b.Nights())
	assert.Equal(t, 0.0, b.PricePerNight())
}

func TestOverlaps(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
	}

	// Plain overlap.
	assert.True(t, Overlaps(day(1), day(5), day(3), day(8)))
	assert.True(t, Overlaps(day(3), day(8), day(1), day(5)))
	// Containment.
	assert.True(t, Overlaps(day(1), day(10), day(4), day(6)))
	// Back-to-back is not an overlap under half-open semantics.
	assert.False(t, Overlaps(day(1), day(5), day(5), day(8)))
	assert.False(t, Overlaps(day(5), day(8), day(1), day(5)))
	// Disjoint.
	assert.False(t, Overlaps(day(1), day(3), day(4), day(6)))
}

func TestListingRef(t *testing.T) {
	propID := primitive.NewObjectID()
	tourID := primitive.NewObjectID()

	b := Booking{PropertyID: &propID}
	id, kind := b.ListingRef()
	assert.Equal(t, propID, id)
	assert.Equal(t, KindProperty, kind)

	b = Booking{TourPackageID: &tourID}
	id, kind = b.ListingRef()
	assert.Equal(t, tourID, id)
	assert.Equal(t, KindTourPackage, kind)
}
