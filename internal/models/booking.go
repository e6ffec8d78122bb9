package models

import (
	"encoding/json"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// ValidBookingStatus reports whether s is one of the known booking statuses.
func ValidBookingStatus(s string) bool {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

// bookingTransitions is the closed transition table for BookingStatus.
// Cancelled and completed are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled, BookingCompleted},
	BookingCancelled: {},
	BookingCompleted: {},
}

// CanTransitionTo reports whether moving from s to next is a legal
// booking-status transition.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Terminal reports whether no further status transitions are possible.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// PaymentStatus tracks the manual payment-verification state of a booking.
// It is a parallel machine, loosely coupled to BookingStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// ValidPaymentStatus reports whether s is one of the known payment statuses.
func ValidPaymentStatus(s string) bool {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// paymentTransitions is the closed transition table for PaymentStatus.
// failed -> pending permits a payment retry; paid -> refunded only happens
// through the cancellation auto-refund path.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentPaid:     {PaymentRefunded},
	PaymentFailed:   {PaymentPending},
	PaymentRefunded: {},
}

// CanTransitionTo reports whether moving from s to next is a legal
// payment-status transition.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Booking links a user to exactly one listing (property XOR tour package)
// for a date range. Dates use half-open [CheckIn, CheckOut) semantics.
type Booking struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID  `bson:"user" json:"user"`
	PropertyID    *primitive.ObjectID `bson:"property,omitempty" json:"property,omitempty"`
	TourPackageID *primitive.ObjectID `bson:"tour_package,omitempty" json:"tour_package,omitempty"`
	CheckIn       time.Time           `bson:"check_in" json:"check_in"`
	CheckOut      time.Time           `bson:"check_out" json:"check_out"`
	Guests        int                 `bson:"guests" json:"guests"`
	TotalPrice    float64             `bson:"total_price" json:"total_price"`
	Status        BookingStatus       `bson:"status" json:"status"`
	PaymentStatus PaymentStatus       `bson:"payment_status" json:"payment_status"`
	PaymentNote   string              `bson:"payment_note,omitempty" json:"payment_note,omitempty"`
	ProofImages   []string            `bson:"proof_images,omitempty" json:"proof_images,omitempty"` // S3 keys
	CancelReason  string              `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time          `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updated_at"`
}

// ListingRef returns the referenced listing id and kind. The mutual
// exclusivity invariant guarantees exactly one of the two refs is set on any
// persisted booking.
func (b *Booking) ListingRef() (primitive.ObjectID, ListingKind) {
	if b.PropertyID != nil {
		return *b.PropertyID, KindProperty
	}
	if b.TourPackageID != nil {
		return *b.TourPackageID, KindTourPackage
	}
	return primitive.NilObjectID, ""
}

// Nights derives the stay length: ceil((CheckOut - CheckIn) / 24h).
func (b *Booking) Nights() int {
	return int(math.Ceil(b.CheckOut.Sub(b.CheckIn).Hours() / 24))
}

// PricePerNight derives the nightly rate from the total price.
func (b *Booking) PricePerNight() float64 {
	nights := b.Nights()
	if nights <= 0 {
		return 0
	}
	return b.TotalPrice / float64(nights)
}

// Overlaps reports whether two half-open intervals share at least one
// instant: [a1,a2) and [b1,b2) overlap iff a1 < b2 && a2 > b1.
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && a2.After(b1)
}

// MarshalJSON includes the derived nights and price_per_night attributes in
// API responses without storing them.
func (b Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return json.Marshal(struct {
		alias
		Nights        int     `json:"nights"`
		PricePerNight float64 `json:"price_per_night"`
	}{
		alias:         alias(b),
		Nights:        b.Nights(),
		PricePerNight: b.PricePerNight(),
	})
}
