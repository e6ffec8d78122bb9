package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/utils"
)

type listingTestEnv struct {
	db         *mongo.Database
	listings   IListingService
	storage    *fakeStorage
	dispatcher *fakeDispatcher
	host       models.Principal
}

func setupListingEnv(t *testing.T) *listingTestEnv {
	db := utils.SetupTestDB(t, "guaranihost_test_listings", listingsCollection)
	st := newFakeStorage()
	dispatcher := newFakeDispatcher()

	host := models.Principal{ID: newObjectID(), Role: models.RoleHost}
	return &listingTestEnv{
		db:         db,
		listings:   NewListingService(db, testConfig(), st, dispatcher),
		storage:    st,
		dispatcher: dispatcher,
		host:       host,
	}
}

func TestCreateListingRequiresImage(t *testing.T) {
	env := setupListingEnv(t)
	ctx := context.Background()

	input := ListingInput{Kind: models.KindProperty, Title: "Casa", City: "Asunción", Price: 100}

	_, err := env.listings.CreateListing(ctx, env.host, input, nil)
	assert.ErrorIs(t, err, ErrValidation)

	listing, err := env.listings.CreateListing(ctx, env.host, input, []ImageUpload{imageUpload("a.jpg")})
	require.NoError(t, err)
	assert.Len(t, listing.Images, 1)
	assert.Equal(t, models.ListingAvailable, listing.Status)
	assert.Equal(t, env.host.ID, listing.HostID)

	// Processing was queued for the uploaded image.
	assert.Equal(t, listing.Images, env.dispatcher.images)
}

func TestCreateListingRejectsUsers(t *testing.T) {
	env := setupListingEnv(t)

	user := models.Principal{ID: newObjectID(), Role: models.RoleUser}
	_, err := env.listings.CreateListing(context.Background(), user,
		ListingInput{Kind: models.KindProperty, Title: "Casa", Price: 100},
		[]ImageUpload{imageUpload("a.jpg")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateTourPackage(t *testing.T) {
	env := setupListingEnv(t)

	departure := time.Now().UTC().AddDate(0, 1, 0)
	listing, err := env.listings.CreateListing(context.Background(), env.host,
		ListingInput{
			Kind:         models.KindTourPackage,
			Title:        "Ruta Jesuítica",
			City:         "Trinidad",
			Price:        350,
			MaxGuests:    15,
			DurationDays: 3,
			DepartureAt:  &departure,
		},
		[]ImageUpload{imageUpload("ruins.jpg")})
	require.NoError(t, err)
	assert.Equal(t, models.KindTourPackage, listing.Kind)
	assert.Equal(t, 3, listing.DurationDays)
}

func TestUpdateListingStatusByKind(t *testing.T) {
	env := setupListingEnv(t)
	ctx := context.Background()

	listing, err := env.listings.CreateListing(ctx, env.host,
		ListingInput{Kind: models.KindProperty, Title: "Casa", Price: 100},
		[]ImageUpload{imageUpload("a.jpg")})
	require.NoError(t, err)

	// sold_out belongs to tour packages only.
	_, err = env.listings.UpdateListing(ctx, listing.ID, env.host, map[string]interface{}{"status": "sold_out"})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := env.listings.UpdateListing(ctx, listing.ID, env.host, map[string]interface{}{"status": "inactive", "price": 140.0})
	require.NoError(t, err)
	assert.Equal(t, models.ListingInactive, updated.Status)
	assert.Equal(t, 140.0, updated.Price)
}

func TestUpdateListingOwnership(t *testing.T) {
	env := setupListingEnv(t)
	ctx := context.Background()

	listing, err := env.listings.CreateListing(ctx, env.host,
		ListingInput{Kind: models.KindProperty, Title: "Casa", Price: 100},
		[]ImageUpload{imageUpload("a.jpg")})
	require.NoError(t, err)

	otherHost := models.Principal{ID: newObjectID(), Role: models.RoleHost}
	_, err = env.listings.UpdateListing(ctx, listing.ID, otherHost, map[string]interface{}{"title": "Mine now"})
	assert.ErrorIs(t, err, ErrForbidden)

	admin := models.Principal{ID: newObjectID(), Role: models.RoleAdmin}
	_, err = env.listings.UpdateListing(ctx, listing.ID, admin, map[string]interface{}{"title": "Renamed"})
	assert.NoError(t, err)
}

func TestRemoveImageKeepsLastOne(t *testing.T) {
	env := setupListingEnv(t)
	ctx := context.Background()

	listing, err := env.listings.CreateListing(ctx, env.host,
		ListingInput{Kind: models.KindProperty, Title: "Casa", Price: 100},
		[]ImageUpload{imageUpload("a.jpg"), imageUpload("b.jpg")})
	require.NoError(t, err)
	require.Len(t, listing.Images, 2)

	updated, err := env.listings.RemoveImage(ctx, listing.ID, env.host, listing.Images[0])
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	assert.Contains(t, env.storage.deleted, listing.Images[0])

	// The last image cannot be removed.
	_, err = env.listings.RemoveImage(ctx, listing.ID, env.host, updated.Images[0])
	assert.ErrorIs(t, err, ErrConflict)

	// Removing an unknown key is a 404, not a silent no-op.
	_, err = env.listings.RemoveImage(ctx, listing.ID, env.host, "listings/nope.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteListingSoftDeletesAndQueuesCleanup(t *testing.T) {
	env := setupListingEnv(t)
	ctx := context.Background()

	listing, err := env.listings.CreateListing(ctx, env.host,
		ListingInput{Kind: models.KindProperty, Title: "Casa", Price: 100},
		[]ImageUpload{imageUpload("a.jpg")})
	require.NoError(t, err)

	require.NoError(t, env.listings.DeleteListing(ctx, listing.ID, env.host))

	_, err = env.listings.FindListingByID(ctx, listing.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.Len(t, env.dispatcher.cleanups, 1)
	assert.Equal(t, listing.Images, env.dispatcher.cleanups[0])

	// Deleting twice is a 404.
	err = env.listings.DeleteListing(ctx, listing.ID, env.host)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListListingsFilters(t *testing.T) {
	env := setupListingEnv(t)
	ctx := context.Background()

	_, err := env.listings.CreateListing(ctx, env.host,
		ListingInput{Kind: models.KindProperty, Title: "Casa", City: "Asunción", Price: 100},
		[]ImageUpload{imageUpload("a.jpg")})
	require.NoError(t, err)
	_, err = env.listings.CreateListing(ctx, env.host,
		ListingInput{Kind: models.KindTourPackage, Title: "Tour", City: "Trinidad", Price: 200, DurationDays: 2},
		[]ImageUpload{imageUpload("b.jpg")})
	require.NoError(t, err)

	kind := models.KindProperty
	properties, err := env.listings.ListListings(ctx, ListingFilter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, "Casa", properties[0].Title)

	city := "Trinidad"
	tours, err := env.listings.ListListings(ctx, ListingFilter{City: &city})
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, "Tour", tours[0].Title)
}
