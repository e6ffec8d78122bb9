package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
)

// IAvailabilityService answers whether a listing can take a booking for a
// date range.
type IAvailabilityService interface {
	IsAvailable(ctx context.Context, listingID primitive.ObjectID, kind models.ListingKind, checkIn, checkOut time.Time, excludeBookingID *primitive.ObjectID) (bool, error)
}

type availabilityService struct {
	db       *mongo.Database
	listings IListingService
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(database *mongo.Database, listings IListingService) IAvailabilityService {
	return &availabilityService{db: database, listings: listings}
}

// blockingStatuses are the booking statuses that occupy a date range.
// Cancelled and completed bookings never block.
var blockingStatuses = []models.BookingStatus{models.BookingPending, models.BookingConfirmed}

// IsAvailable reports whether the listing exists, is open for booking, and
// has no active booking overlapping [checkIn, checkOut) under half-open
// semantics. excludeBookingID skips one booking from the overlap set, used
// when re-validating an update against the booking's own record.
//
// Any storage error fails closed: the caller gets (false, err) and must not
// allow the booking through.
func (s *availabilityService) IsAvailable(ctx context.Context, listingID primitive.ObjectID, kind models.ListingKind, checkIn, checkOut time.Time, excludeBookingID *primitive.ObjectID) (bool, error) {
	if !checkIn.Before(checkOut) {
		return false, fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	}

	listing, err := s.listings.FindListingByID(ctx, listingID)
	if err != nil {
		return false, err
	}
	if !listing.Bookable() {
		return false, nil
	}

	refField := "property"
	if kind == models.KindTourPackage {
		refField = "tour_package"
	}

	// Two half-open intervals [a1,a2) and [b1,b2) overlap iff a1 < b2 && a2 > b1.
	filter := bson.M{
		refField:    listingID,
		"status":    bson.M{"$in": blockingStatuses},
		"check_in":  bson.M{"$lt": checkOut},
		"check_out": bson.M{"$gt": checkIn},
	}
	if excludeBookingID != nil {
		filter["_id"] = bson.M{"$ne": *excludeBookingID}
	}

	count, err := s.db.Collection(bookingsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to query overlapping bookings for listing %s: %w", listingID.Hex(), err)
	}
	return count == 0, nil
}
