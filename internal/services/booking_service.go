package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/cache"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/config"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/db"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/storage"
)

// IBookingService is the booking lifecycle manager: creation, requester
// updates, owner status/payment transitions and soft cancellation.
type IBookingService interface {
	Create(ctx context.Context, requester models.Principal, input BookingInput, proofImages []ImageUpload) (*models.Booking, error)
	FindByID(ctx context.Context, bookingID primitive.ObjectID, principal models.Principal) (*models.Booking, error)
	ListForPrincipal(ctx context.Context, principal models.Principal, filter BookingFilter) ([]models.Booking, error)
	UpdateByRequester(ctx context.Context, bookingID primitive.ObjectID, requester models.Principal, patch BookingPatch) (*models.Booking, error)
	UpdateStatusByOwner(ctx context.Context, bookingID primitive.ObjectID, owner models.Principal, newStatus models.BookingStatus, reason string) (*models.Booking, error)
	UpdatePaymentStatus(ctx context.Context, bookingID primitive.ObjectID, owner models.Principal, newPaymentStatus models.PaymentStatus) (*models.Booking, error)
	CancelByRequester(ctx context.Context, bookingID primitive.ObjectID, requester models.Principal, reason string) (*models.Booking, error)
}

// BookingInput carries the requester-supplied fields for a new booking.
// Exactly one of PropertyID/TourPackageID must be set.
type BookingInput struct {
	PropertyID    *primitive.ObjectID
	TourPackageID *primitive.ObjectID
	CheckIn       time.Time
	CheckOut      time.Time
	Guests        int
	TotalPrice    float64
	PaymentNote   string
}

// BookingPatch is the requester-updatable subset of a booking. Nil fields are
// left untouched.
type BookingPatch struct {
	CheckIn           *time.Time
	CheckOut          *time.Time
	Guests            *int
	PaymentNote       *string
	AddProofImages    []ImageUpload
	RemoveProofImages []string
}

// BookingFilter narrows ListForPrincipal results.
type BookingFilter struct {
	Status        *models.BookingStatus
	PaymentStatus *models.PaymentStatus
	Kind          *models.ListingKind
	From          *time.Time
	To            *time.Time
	Limit         int
}

const bookingsCollection = "bookings"

type bookingService struct {
	db           *mongo.Database
	cfg          *config.Config
	listings     IListingService
	accounts     IAccountService
	availability IAvailabilityService
	images       storage.IImageStorage
	locker       cache.Locker
	dispatcher   SideEffectDispatcher
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	database *mongo.Database,
	cfg *config.Config,
	listings IListingService,
	accounts IAccountService,
	availability IAvailabilityService,
	images storage.IImageStorage,
	locker cache.Locker,
	dispatcher SideEffectDispatcher,
) IBookingService {
	return &bookingService{
		db:           database,
		cfg:          cfg,
		listings:     listings,
		accounts:     accounts,
		availability: availability,
		images:       images,
		locker:       locker,
		dispatcher:   dispatcher,
	}
}

// validateInput checks the creation invariants: exactly one listing ref,
// sane future dates, guests within range, positive price.
func (s *bookingService) validateInput(input BookingInput) error {
	if (input.PropertyID == nil) == (input.TourPackageID == nil) {
		return fmt.Errorf("%w: exactly one of property or tour_package must be set", ErrValidation)
	}
	if input.CheckIn.IsZero() || input.CheckOut.IsZero() {
		return fmt.Errorf("%w: check_in and check_out are required", ErrValidation)
	}
	if !input.CheckOut.After(input.CheckIn) {
		return fmt.Errorf("%w: check_out must be after check_in", ErrValidation)
	}
	if input.CheckIn.Before(startOfToday()) {
		return fmt.Errorf("%w: check_in must not be in the past", ErrValidation)
	}
	if input.Guests < 1 || input.Guests > s.cfg.MaxGuestsPerBooking {
		return fmt.Errorf("%w: guests must be between 1 and %d", ErrValidation, s.cfg.MaxGuestsPerBooking)
	}
	if input.TotalPrice <= 0 {
		return fmt.Errorf("%w: total_price must be positive", ErrValidation)
	}
	return nil
}

func startOfToday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (input BookingInput) listingRef() (primitive.ObjectID, models.ListingKind) {
	if input.PropertyID != nil {
		return *input.PropertyID, models.KindProperty
	}
	return *input.TourPackageID, models.KindTourPackage
}

// Create validates the request, serializes on the target listing, checks
// availability and persists the booking with status=pending,
// payment_status=pending. Proof image uploads are best-effort per file; the
// confirmation email goes through the side-effect queue and its failure
// never rolls back the booking.
func (s *bookingService) Create(ctx context.Context, requester models.Principal, input BookingInput, proofImages []ImageUpload) (*models.Booking, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	listingID, kind := input.listingRef()

	// Per-listing serialization point: without it two concurrent creates
	// could both pass the availability check before either write lands.
	release, err := s.locker.Acquire(ctx, "booking:listing:"+listingID.Hex(), s.cfg.BookingLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, fmt.Errorf("%w: listing %s is being booked by another request", ErrConflict, listingID.Hex())
		}
		return nil, fmt.Errorf("failed to acquire booking lock for listing %s: %w", listingID.Hex(), err)
	}
	defer release()

	available, err := s.availability.IsAvailable(ctx, listingID, kind, input.CheckIn, input.CheckOut, nil)
	if err != nil {
		// Fail closed: an infrastructure error must never let a
		// conflicting booking through.
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("%w: listing %s is not available for the requested dates", ErrConflict, listingID.Hex())
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:            primitive.NewObjectID(),
		UserID:        requester.ID,
		PropertyID:    input.PropertyID,
		TourPackageID: input.TourPackageID,
		CheckIn:       input.CheckIn,
		CheckOut:      input.CheckOut,
		Guests:        input.Guests,
		TotalPrice:    input.TotalPrice,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		PaymentNote:   input.PaymentNote,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if len(proofImages) > 0 {
		keys, _ := s.uploadProofImages(ctx, booking.ID, proofImages)
		booking.ProofImages = keys
	}

	// Regenerate the id and retry on the (unlikely) duplicate-key insert.
	err = db.Try(func() error {
		_, insertErr := s.db.Collection(bookingsCollection).InsertOne(ctx, booking)
		if db.IsMongoDuplicateKeyError(insertErr) {
			booking.ID = primitive.NewObjectID()
		}
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert booking for listing %s: %w", listingID.Hex(), err)
	}

	s.notifyRequester(ctx, booking, "Booking received",
		fmt.Sprintf("Your booking request for %s to %s has been received and is pending confirmation. Total: %.2f (%d nights).",
			booking.CheckIn.Format("2006-01-02"), booking.CheckOut.Format("2006-01-02"), booking.TotalPrice, booking.Nights()))

	return booking, nil
}

// uploadProofImages stores payment-proof files one by one; a partial failure
// keeps whatever succeeded.
func (s *bookingService) uploadProofImages(ctx context.Context, bookingID primitive.ObjectID, images []ImageUpload) ([]string, error) {
	folder := fmt.Sprintf("bookings/%s/proof", bookingID.Hex())
	var keys []string
	var lastErr error
	for _, img := range images {
		key, err := s.images.Upload(ctx, folder, img.Filename, img.ContentType, img.Body)
		if err != nil {
			log.Printf("WARN: failed to upload payment proof %s for booking %s: %v", img.Filename, bookingID.Hex(), err)
			lastErr = err
			continue
		}
		keys = append(keys, key)
		if err := s.dispatcher.EnqueueImageProcess(ctx, key); err != nil {
			log.Printf("WARN: failed to enqueue image processing for %s: %v", key, err)
		}
	}
	return keys, lastErr
}

// findBooking loads a booking together with its referenced listing. The
// listing may be nil if it has since been deleted; authorization for hosts
// then fails, admins and the requester still pass.
func (s *bookingService) findBooking(ctx context.Context, bookingID primitive.ObjectID) (*models.Booking, *models.Listing, error) {
	var booking models.Booking
	err := s.db.Collection(bookingsCollection).FindOne(ctx, bson.M{"_id": bookingID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID.Hex())
		}
		return nil, nil, fmt.Errorf("failed to find booking %s: %w", bookingID.Hex(), err)
	}

	listingID, _ := booking.ListingRef()
	listing, err := s.listings.FindListingByID(ctx, listingID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}
	return &booking, listing, nil
}

// FindByID returns a booking if the principal may access it.
func (s *bookingService) FindByID(ctx context.Context, bookingID primitive.ObjectID, principal models.Principal) (*models.Booking, error) {
	booking, listing, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanAccessBooking(principal, booking, listing) {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID.Hex())
	}
	return booking, nil
}

// ListForPrincipal returns bookings visible to the principal: own bookings
// for users, bookings against owned listings for hosts, everything for
// admins.
func (s *bookingService) ListForPrincipal(ctx context.Context, principal models.Principal, filter BookingFilter) ([]models.Booking, error) {
	query := bson.M{}

	switch principal.Role {
	case models.RoleUser:
		query["user"] = principal.ID
	case models.RoleHost:
		ids, err := s.ownedListingIDs(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		query["$or"] = bson.A{
			bson.M{"property": bson.M{"$in": ids}},
			bson.M{"tour_package": bson.M{"$in": ids}},
		}
	case models.RoleAdmin:
		// No scoping.
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, principal.Role)
	}

	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.PaymentStatus != nil {
		query["payment_status"] = *filter.PaymentStatus
	}
	if filter.Kind != nil {
		switch *filter.Kind {
		case models.KindProperty:
			query["property"] = bson.M{"$exists": true}
		case models.KindTourPackage:
			query["tour_package"] = bson.M{"$exists": true}
		}
	}
	if filter.From != nil {
		query["check_out"] = bson.M{"$gt": *filter.From}
	}
	if filter.To != nil {
		query["check_in"] = bson.M{"$lt": *filter.To}
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.db.Collection(bookingsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// ownedListingIDs returns the ids of every non-deleted listing owned by the
// host. The id-only projection keeps the query cheap regardless of how many
// listings the host has.
func (s *bookingService) ownedListingIDs(ctx context.Context, hostID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.db.Collection(listingsCollection).Find(ctx, bson.M{"host": hostID, "deleted": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings for host %s: %w", hostID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode listing ids for host %s: %w", hostID.Hex(), err)
	}
	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// UpdateByRequester applies a requester patch: dates, guest count, payment
// note and proof images. Rejected when the booking is not owned by the
// requester or already cancelled/completed. Date or guest changes re-run the
// availability check excluding this booking's own record.
func (s *bookingService) UpdateByRequester(ctx context.Context, bookingID primitive.ObjectID, requester models.Principal, patch BookingPatch) (*models.Booking, error) {
	booking, _, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requester.ID && !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: booking %s is not owned by requester", ErrForbidden, bookingID.Hex())
	}
	if booking.Status.Terminal() {
		return nil, fmt.Errorf("%w: booking %s is %s and can no longer be updated", ErrConflict, bookingID.Hex(), booking.Status)
	}

	set := bson.M{}

	newCheckIn := booking.CheckIn
	newCheckOut := booking.CheckOut
	if patch.CheckIn != nil {
		newCheckIn = patch.CheckIn.UTC()
		set["check_in"] = newCheckIn
	}
	if patch.CheckOut != nil {
		newCheckOut = patch.CheckOut.UTC()
		set["check_out"] = newCheckOut
	}
	if patch.Guests != nil {
		if *patch.Guests < 1 || *patch.Guests > s.cfg.MaxGuestsPerBooking {
			return nil, fmt.Errorf("%w: guests must be between 1 and %d", ErrValidation, s.cfg.MaxGuestsPerBooking)
		}
		set["guests"] = *patch.Guests
	}
	if patch.PaymentNote != nil {
		set["payment_note"] = *patch.PaymentNote
	}

	datesChanged := patch.CheckIn != nil || patch.CheckOut != nil
	if datesChanged || patch.Guests != nil {
		if !newCheckOut.After(newCheckIn) {
			return nil, fmt.Errorf("%w: check_out must be after check_in", ErrValidation)
		}
		if datesChanged && newCheckIn.Before(startOfToday()) {
			return nil, fmt.Errorf("%w: check_in must not be in the past", ErrValidation)
		}

		listingID, kind := booking.ListingRef()
		release, err := s.locker.Acquire(ctx, "booking:listing:"+listingID.Hex(), s.cfg.BookingLockTTL)
		if err != nil {
			if errors.Is(err, cache.ErrLockHeld) {
				return nil, fmt.Errorf("%w: listing %s is being booked by another request", ErrConflict, listingID.Hex())
			}
			return nil, fmt.Errorf("failed to acquire booking lock for listing %s: %w", listingID.Hex(), err)
		}
		defer release()

		available, err := s.availability.IsAvailable(ctx, listingID, kind, newCheckIn, newCheckOut, &booking.ID)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, fmt.Errorf("%w: listing %s is not available for the requested dates", ErrConflict, listingID.Hex())
		}
	}

	// A removal may only name keys recorded on this booking; anything else
	// must never reach the store.
	if len(patch.RemoveProofImages) > 0 {
		owned := make(map[string]bool, len(booking.ProofImages))
		for _, key := range booking.ProofImages {
			owned[key] = true
		}
		for _, key := range patch.RemoveProofImages {
			if !owned[key] {
				return nil, fmt.Errorf("%w: proof image %s on booking %s", ErrNotFound, key, bookingID.Hex())
			}
		}
	}

	// Removed images are deleted from the store before being dropped from
	// the record.
	var removedKeys []string
	for _, key := range patch.RemoveProofImages {
		if err := s.images.Delete(ctx, key); err != nil {
			log.Printf("WARN: failed to delete payment proof %s for booking %s: %v", key, bookingID.Hex(), err)
			continue
		}
		removedKeys = append(removedKeys, key)
	}

	var addedKeys []string
	if len(patch.AddProofImages) > 0 {
		addedKeys, _ = s.uploadProofImages(ctx, bookingID, patch.AddProofImages)
	}

	if len(set) == 0 && len(removedKeys) == 0 && len(addedKeys) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields provided", ErrValidation)
	}

	set["updated_at"] = time.Now().UTC()
	update := bson.M{"$set": set}
	if len(removedKeys) > 0 {
		update["$pull"] = bson.M{"proof_images": bson.M{"$in": removedKeys}}
	}

	// $pull and $push cannot target the same field in one update.
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	err = s.db.Collection(bookingsCollection).FindOneAndUpdate(ctx, bson.M{"_id": bookingID}, update, opts).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", bookingID.Hex(), err)
	}

	if len(addedKeys) > 0 {
		push := bson.M{"$push": bson.M{"proof_images": bson.M{"$each": addedKeys}}}
		err = s.db.Collection(bookingsCollection).FindOneAndUpdate(ctx, bson.M{"_id": bookingID}, push, opts).Decode(&updated)
		if err != nil {
			return nil, fmt.Errorf("failed to append payment proofs to booking %s: %w", bookingID.Hex(), err)
		}
	}

	return &updated, nil
}

// UpdateStatusByOwner applies a status transition on behalf of the listing's
// host or an admin. Cancelled bookings are terminal; transitioning a paid
// booking to cancelled forces the payment status to refunded.
func (s *bookingService) UpdateStatusByOwner(ctx context.Context, bookingID primitive.ObjectID, owner models.Principal, newStatus models.BookingStatus, reason string) (*models.Booking, error) {
	if !models.ValidBookingStatus(string(newStatus)) {
		return nil, fmt.Errorf("%w: unknown booking status %q", ErrValidation, newStatus)
	}

	booking, listing, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanMutateBookingAsOwner(owner, listing) {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID.Hex())
	}
	if !booking.Status.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("%w: cannot transition booking %s from %s to %s", ErrConflict, bookingID.Hex(), booking.Status, newStatus)
	}

	now := time.Now().UTC()
	set := bson.M{"status": newStatus, "updated_at": now}
	if newStatus == models.BookingCancelled {
		set["cancelled_at"] = now
		if reason != "" {
			set["cancel_reason"] = reason
		}
		if booking.PaymentStatus == models.PaymentPaid {
			set["payment_status"] = models.PaymentRefunded
		}
	}

	updated, err := s.applyUpdate(ctx, bookingID, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("The status of your booking (%s – %s) changed to %s.",
		updated.CheckIn.Format("2006-01-02"), updated.CheckOut.Format("2006-01-02"), newStatus)
	if updated.PaymentStatus == models.PaymentRefunded && booking.PaymentStatus == models.PaymentPaid {
		body += " Your payment will be refunded."
	}
	if reason != "" {
		body += " Reason: " + reason
	}
	s.notifyRequester(ctx, updated, "Booking status updated", body)

	return updated, nil
}

// UpdatePaymentStatus applies a payment-status transition on behalf of the
// listing's host or an admin. Marking a pending booking as paid auto-advances
// the booking to confirmed; a cancelled booking can never be marked paid.
func (s *bookingService) UpdatePaymentStatus(ctx context.Context, bookingID primitive.ObjectID, owner models.Principal, newPaymentStatus models.PaymentStatus) (*models.Booking, error) {
	if !models.ValidPaymentStatus(string(newPaymentStatus)) {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, newPaymentStatus)
	}

	booking, listing, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanMutateBookingAsOwner(owner, listing) {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID.Hex())
	}
	if booking.Status == models.BookingCancelled && newPaymentStatus == models.PaymentPaid {
		return nil, fmt.Errorf("%w: cannot mark a cancelled booking as paid", ErrConflict)
	}
	if !booking.PaymentStatus.CanTransitionTo(newPaymentStatus) {
		return nil, fmt.Errorf("%w: cannot transition payment of booking %s from %s to %s", ErrConflict, bookingID.Hex(), booking.PaymentStatus, newPaymentStatus)
	}

	set := bson.M{"payment_status": newPaymentStatus, "updated_at": time.Now().UTC()}
	if newPaymentStatus == models.PaymentPaid && booking.Status == models.BookingPending {
		set["status"] = models.BookingConfirmed
	}

	updated, err := s.applyUpdate(ctx, bookingID, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("The payment status of your booking (%s – %s) changed to %s.",
		updated.CheckIn.Format("2006-01-02"), updated.CheckOut.Format("2006-01-02"), newPaymentStatus)
	if updated.Status == models.BookingConfirmed && booking.Status == models.BookingPending {
		body += " Your booking is now confirmed."
	}
	s.notifyRequester(ctx, updated, "Payment status updated", body)

	return updated, nil
}

// CancelByRequester soft-cancels the requester's own booking: the record is
// kept with status cancelled, payment proofs are removed from the remote
// store, and a paid booking is marked refunded.
func (s *bookingService) CancelByRequester(ctx context.Context, bookingID primitive.ObjectID, requester models.Principal, reason string) (*models.Booking, error) {
	booking, _, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requester.ID && !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: booking %s is not owned by requester", ErrForbidden, bookingID.Hex())
	}
	if booking.Status.Terminal() {
		return nil, fmt.Errorf("%w: booking %s is already %s", ErrConflict, bookingID.Hex(), booking.Status)
	}

	now := time.Now().UTC()
	refunded := booking.PaymentStatus == models.PaymentPaid
	set := bson.M{
		"status":       models.BookingCancelled,
		"cancelled_at": now,
		"updated_at":   now,
	}
	if reason != "" {
		set["cancel_reason"] = reason
	}
	if refunded {
		set["payment_status"] = models.PaymentRefunded
	}

	updated, err := s.applyUpdate(ctx, bookingID, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}

	if len(booking.ProofImages) > 0 {
		if err := s.dispatcher.EnqueueImageCleanup(ctx, booking.ProofImages); err != nil {
			log.Printf("WARN: failed to enqueue proof cleanup for booking %s: %v", bookingID.Hex(), err)
		}
	}

	body := fmt.Sprintf("Your booking (%s – %s) has been cancelled.",
		updated.CheckIn.Format("2006-01-02"), updated.CheckOut.Format("2006-01-02"))
	if refunded {
		body += " Your payment will be refunded."
	}
	s.notifyRequester(ctx, updated, "Booking cancelled", body)

	return updated, nil
}

func (s *bookingService) applyUpdate(ctx context.Context, bookingID primitive.ObjectID, update bson.M) (*models.Booking, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	err := s.db.Collection(bookingsCollection).FindOneAndUpdate(ctx, bson.M{"_id": bookingID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID.Hex())
		}
		return nil, fmt.Errorf("failed to update booking %s: %w", bookingID.Hex(), err)
	}
	return &updated, nil
}

// notifyRequester queues an email to the booking's requester. Failures are
// logged and absorbed; notifications never fail the request.
func (s *bookingService) notifyRequester(ctx context.Context, booking *models.Booking, subject, body string) {
	account, err := s.accounts.FindByID(ctx, booking.UserID)
	if err != nil {
		log.Printf("WARN: cannot resolve requester %s for booking %s notification: %v", booking.UserID.Hex(), booking.ID.Hex(), err)
		return
	}
	if err := s.dispatcher.EnqueueEmail(ctx, account.Email, subject, body); err != nil {
		log.Printf("WARN: failed to enqueue %q email for booking %s: %v", subject, booking.ID.Hex(), err)
	}
}
