package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListingKind tags the two variants of a bookable unit.
type ListingKind string

const (
	KindProperty    ListingKind = "property"
	KindTourPackage ListingKind = "tour_package"
)

// ValidListingKind reports whether s names a known listing kind.
func ValidListingKind(s string) bool {
	return ListingKind(s) == KindProperty || ListingKind(s) == KindTourPackage
}

// ListingStatus is the publication state of a listing. Properties and tour
// packages draw from different subsets of the enum; use ValidFor to check.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingBooked    ListingStatus = "booked"
	ListingCancelled ListingStatus = "cancelled"
	ListingConfirmed ListingStatus = "confirmed"
	ListingInactive  ListingStatus = "inactive"
	ListingSoldOut   ListingStatus = "sold_out"
	ListingUpcoming  ListingStatus = "upcoming"
)

var listingStatusByKind = map[ListingKind][]ListingStatus{
	KindProperty:    {ListingAvailable, ListingBooked, ListingCancelled, ListingConfirmed, ListingInactive},
	KindTourPackage: {ListingAvailable, ListingSoldOut, ListingCancelled, ListingUpcoming},
}

// ValidFor reports whether the status belongs to the given kind's enum.
func (s ListingStatus) ValidFor(kind ListingKind) bool {
	for _, allowed := range listingStatusByKind[kind] {
		if s == allowed {
			return true
		}
	}
	return false
}

// Listing is a bookable unit owned by a host: either a property (nightly
// stay) or a tour package (fixed-price experience). Shared fields are
// hoisted; the kind-specific extras are optional.
type Listing struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	HostID      primitive.ObjectID `bson:"host" json:"host"`
	Kind        ListingKind        `bson:"kind" json:"kind"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	City        string             `bson:"city" json:"city"`
	Price       float64            `bson:"price" json:"price"`
	MaxGuests   int                `bson:"max_guests" json:"max_guests"`
	Status      ListingStatus      `bson:"status" json:"status"`
	Images      []string           `bson:"images" json:"images"` // S3 keys, never empty

	// Property-only.
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
	Bedrooms int    `bson:"bedrooms,omitempty" json:"bedrooms,omitempty"`

	// Tour-package-only.
	DurationDays int        `bson:"duration_days,omitempty" json:"duration_days,omitempty"`
	DepartureAt  *time.Time `bson:"departure_at,omitempty" json:"departure_at,omitempty"`

	Deleted   bool      `bson:"deleted" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Bookable reports whether new bookings may target this listing.
func (l *Listing) Bookable() bool {
	return !l.Deleted && l.Status == ListingAvailable
}
