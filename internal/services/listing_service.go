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

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/config"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/db"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/storage"
)

// IListingService defines the interface for listing-related operations.
// A listing is either a property or a tour package; the two share one
// collection and one code path, distinguished by the kind tag.
type IListingService interface {
	CreateListing(ctx context.Context, host models.Principal, input ListingInput, images []ImageUpload) (*models.Listing, error)
	FindListingByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error)
	UpdateListing(ctx context.Context, listingID primitive.ObjectID, principal models.Principal, updates map[string]interface{}) (*models.Listing, error)
	AddImages(ctx context.Context, listingID primitive.ObjectID, principal models.Principal, images []ImageUpload) (*models.Listing, error)
	RemoveImage(ctx context.Context, listingID primitive.ObjectID, principal models.Principal, imageKey string) (*models.Listing, error)
	DeleteListing(ctx context.Context, listingID primitive.ObjectID, principal models.Principal) error
}

// ListingInput carries the host-supplied fields for a new listing.
type ListingInput struct {
	Kind        models.ListingKind
	Title       string
	Description string
	City        string
	Price       float64
	MaxGuests   int

	// Property-only.
	Address  string
	Bedrooms int

	// Tour-package-only.
	DurationDays int
	DepartureAt  *time.Time
}

// ListingFilter narrows ListListings results.
type ListingFilter struct {
	Kind   *models.ListingKind
	City   *string
	HostID *primitive.ObjectID
	Status *models.ListingStatus
	Limit  int
}

const listingsCollection = "listings"

type listingService struct {
	db         *mongo.Database
	cfg        *config.Config
	images     storage.IImageStorage
	dispatcher SideEffectDispatcher
}

// NewListingService creates a new ListingService.
func NewListingService(database *mongo.Database, cfg *config.Config, images storage.IImageStorage, dispatcher SideEffectDispatcher) IListingService {
	return &listingService{db: database, cfg: cfg, images: images, dispatcher: dispatcher}
}

// CreateListing creates a listing owned by the acting host (or by an admin on
// a host's behalf via the updates path). At least one image is required — a
// listing must carry an image at all times.
func (s *listingService) CreateListing(ctx context.Context, host models.Principal, input ListingInput, images []ImageUpload) (*models.Listing, error) {
	if host.Role != models.RoleHost && host.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only hosts may create listings", ErrForbidden)
	}
	if !models.ValidListingKind(string(input.Kind)) {
		return nil, fmt.Errorf("%w: unknown listing kind %q", ErrValidation, input.Kind)
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", ErrValidation)
	}

	now := time.Now().UTC()
	listing := &models.Listing{
		ID:           primitive.NewObjectID(),
		HostID:       host.ID,
		Kind:         input.Kind,
		Title:        input.Title,
		Description:  input.Description,
		City:         input.City,
		Price:        input.Price,
		MaxGuests:    input.MaxGuests,
		Status:       models.ListingAvailable,
		Address:      input.Address,
		Bedrooms:     input.Bedrooms,
		DurationDays: input.DurationDays,
		DepartureAt:  input.DepartureAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	keys, err := s.uploadImages(ctx, fmt.Sprintf("listings/%s", listing.ID.Hex()), images)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		// Every upload failed: creating the listing would break the
		// image invariant.
		return nil, fmt.Errorf("failed to store listing images: %w", err)
	}
	listing.Images = keys

	// Regenerate the id and retry on the (unlikely) duplicate-key insert.
	err = db.Try(func() error {
		_, insertErr := s.db.Collection(listingsCollection).InsertOne(ctx, listing)
		if db.IsMongoDuplicateKeyError(insertErr) {
			listing.ID = primitive.NewObjectID()
		}
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert listing %s: %w", listing.ID.Hex(), err)
	}

	for _, key := range keys {
		if err := s.dispatcher.EnqueueImageProcess(ctx, key); err != nil {
			log.Printf("WARN: failed to enqueue image processing for %s: %v", key, err)
		}
	}

	return listing, nil
}

// uploadImages stores each file individually; uploads are best-effort per
// file, not atomic as a batch. It returns the keys that succeeded and the
// last error seen.
func (s *listingService) uploadImages(ctx context.Context, folder string, images []ImageUpload) ([]string, error) {
	var keys []string
	var lastErr error
	for _, img := range images {
		key, err := s.images.Upload(ctx, folder, img.Filename, img.ContentType, img.Body)
		if err != nil {
			log.Printf("WARN: failed to upload image %s to %s: %v", img.Filename, folder, err)
			lastErr = err
			continue
		}
		keys = append(keys, key)
	}
	return keys, lastErr
}

// FindListingByID finds a non-deleted listing by its ID. It does NOT check
// ownership.
func (s *listingService) FindListingByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	var listing models.Listing
	filter := bson.M{"_id": listingID, "deleted": false}
	err := s.db.Collection(listingsCollection).FindOne(ctx, filter).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, listingID.Hex())
		}
		return nil, fmt.Errorf("failed to find listing %s: %w", listingID.Hex(), err)
	}
	return &listing, nil
}

// ListListings returns non-deleted listings matching the filter.
func (s *listingService) ListListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error) {
	query := bson.M{"deleted": false}
	if filter.Kind != nil {
		query["kind"] = *filter.Kind
	}
	if filter.City != nil {
		query["city"] = *filter.City
	}
	if filter.HostID != nil {
		query["host"] = *filter.HostID
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.db.Collection(listingsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

// UpdateListing updates mutable fields of a listing owned by the acting host;
// admins bypass the ownership check. Status values are validated against the
// listing's kind.
func (s *listingService) UpdateListing(ctx context.Context, listingID primitive.ObjectID, principal models.Principal, updates map[string]interface{}) (*models.Listing, error) {
	listing, err := s.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !CanMutateListing(principal, listing) {
		return nil, fmt.Errorf("%w: listing %s is not owned by principal", ErrForbidden, listingID.Hex())
	}

	allowed := bson.M{}
	for key, value := range updates {
		switch key {
		case "title", "description", "city", "price", "max_guests", "address", "bedrooms", "duration_days":
			allowed[key] = value
		case "status":
			statusStr, ok := value.(string)
			if !ok || !models.ListingStatus(statusStr).ValidFor(listing.Kind) {
				return nil, fmt.Errorf("%w: invalid status %v for %s", ErrValidation, value, listing.Kind)
			}
			allowed[key] = models.ListingStatus(statusStr)
		default:
			return nil, fmt.Errorf("%w: field %q cannot be updated", ErrValidation, key)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields provided", ErrValidation)
	}
	allowed["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": listingID, "deleted": false}

	var updated models.Listing
	err = s.db.Collection(listingsCollection).FindOneAndUpdate(ctx, filter, bson.M{"$set": allowed}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, listingID.Hex())
		}
		return nil, fmt.Errorf("failed to update listing %s: %w", listingID.Hex(), err)
	}
	return &updated, nil
}

// AddImages uploads and appends images to a listing.
func (s *listingService) AddImages(ctx context.Context, listingID primitive.ObjectID, principal models.Principal, images []ImageUpload) (*models.Listing, error) {
	listing, err := s.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !CanMutateListing(principal, listing) {
		return nil, fmt.Errorf("%w: listing %s is not owned by principal", ErrForbidden, listingID.Hex())
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images provided", ErrValidation)
	}

	keys, uploadErr := s.uploadImages(ctx, fmt.Sprintf("listings/%s", listingID.Hex()), images)
	if len(keys) == 0 {
		return nil, fmt.Errorf("failed to store images: %w", uploadErr)
	}

	update := bson.M{
		"$push": bson.M{"images": bson.M{"$each": keys}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Listing
	err = s.db.Collection(listingsCollection).FindOneAndUpdate(ctx, bson.M{"_id": listingID, "deleted": false}, update, opts).Decode(&updated)
	if err != nil {
		return nil, fmt.Errorf("failed to append images to listing %s: %w", listingID.Hex(), err)
	}

	for _, key := range keys {
		if err := s.dispatcher.EnqueueImageProcess(ctx, key); err != nil {
			log.Printf("WARN: failed to enqueue image processing for %s: %v", key, err)
		}
	}
	return &updated, nil
}

// RemoveImage deletes one image from the store and drops it from the record.
// A listing must retain at least one image, so removing the last one is
// rejected.
func (s *listingService) RemoveImage(ctx context.Context, listingID primitive.ObjectID, principal models.Principal, imageKey string) (*models.Listing, error) {
	listing, err := s.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !CanMutateListing(principal, listing) {
		return nil, fmt.Errorf("%w: listing %s is not owned by principal", ErrForbidden, listingID.Hex())
	}

	found := false
	for _, key := range listing.Images {
		if key == imageKey {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: image %s on listing %s", ErrNotFound, imageKey, listingID.Hex())
	}
	if len(listing.Images) <= 1 {
		return nil, fmt.Errorf("%w: a listing must retain at least one image", ErrConflict)
	}

	// Remove from the remote store before dropping the reference.
	if err := s.images.Delete(ctx, imageKey); err != nil {
		return nil, fmt.Errorf("failed to delete image %s from store: %w", imageKey, err)
	}

	// The filter re-checks the invariant so two concurrent removals cannot
	// drop the array below one element.
	filter := bson.M{"_id": listingID, "deleted": false, "images.1": bson.M{"$exists": true}}
	update := bson.M{
		"$pull": bson.M{"images": imageKey},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Listing
	err = s.db.Collection(listingsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: a listing must retain at least one image", ErrConflict)
		}
		return nil, fmt.Errorf("failed to remove image %s from listing %s: %w", imageKey, listingID.Hex(), err)
	}
	return &updated, nil
}

// DeleteListing soft-deletes a listing and queues removal of its images from
// the remote store.
func (s *listingService) DeleteListing(ctx context.Context, listingID primitive.ObjectID, principal models.Principal) error {
	listing, err := s.FindListingByID(ctx, listingID)
	if err != nil {
		return err
	}
	if !CanMutateListing(principal, listing) {
		return fmt.Errorf("%w: listing %s is not owned by principal", ErrForbidden, listingID.Hex())
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{"deleted": true, "deleted_at": now, "updated_at": now}}
	result, err := s.db.Collection(listingsCollection).UpdateOne(ctx, bson.M{"_id": listingID, "deleted": false}, update)
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", listingID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: listing %s", ErrNotFound, listingID.Hex())
	}

	if len(listing.Images) > 0 {
		if err := s.dispatcher.EnqueueImageCleanup(ctx, listing.Images); err != nil {
			log.Printf("WARN: failed to enqueue image cleanup for listing %s: %v", listingID.Hex(), err)
		}
	}
	return nil
}
