package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
)

func TestCanAccessBooking(t *testing.T) {
	requesterID := primitive.NewObjectID()
	hostID := primitive.NewObjectID()
	strangerID := primitive.NewObjectID()

	booking := &models.Booking{UserID: requesterID}
	listing := &models.Listing{HostID: hostID}

	assert.True(t, CanAccessBooking(models.Principal{ID: requesterID, Role: models.RoleUser}, booking, listing))
	assert.True(t, CanAccessBooking(models.Principal{ID: hostID, Role: models.RoleHost}, booking, listing))
	assert.True(t, CanAccessBooking(models.Principal{ID: strangerID, Role: models.RoleAdmin}, booking, listing))

	assert.False(t, CanAccessBooking(models.Principal{ID: strangerID, Role: models.RoleUser}, booking, listing))
	assert.False(t, CanAccessBooking(models.Principal{ID: strangerID, Role: models.RoleHost}, booking, listing))

	// A host loses access when the listing is gone; the requester does not.
	assert.False(t, CanAccessBooking(models.Principal{ID: hostID, Role: models.RoleHost}, booking, nil))
	assert.True(t, CanAccessBooking(models.Principal{ID: requesterID, Role: models.RoleUser}, booking, nil))
}

func TestCanMutateBookingAsOwner(t *testing.T) {
	hostID := primitive.NewObjectID()
	listing := &models.Listing{HostID: hostID}

	assert.True(t, CanMutateBookingAsOwner(models.Principal{ID: hostID, Role: models.RoleHost}, listing))
	assert.True(t, CanMutateBookingAsOwner(models.Principal{ID: primitive.NewObjectID(), Role: models.RoleAdmin}, listing))
	assert.False(t, CanMutateBookingAsOwner(models.Principal{ID: primitive.NewObjectID(), Role: models.RoleHost}, listing))
	assert.False(t, CanMutateBookingAsOwner(models.Principal{ID: hostID, Role: models.RoleUser}, listing))
	assert.False(t, CanMutateBookingAsOwner(models.Principal{ID: hostID, Role: models.RoleHost}, nil))
}

func TestCanMutateListing(t *testing.T) {
	hostID := primitive.NewObjectID()
	listing := &models.Listing{HostID: hostID}

	assert.True(t, CanMutateListing(models.Principal{ID: hostID, Role: models.RoleHost}, listing))
	assert.True(t, CanMutateListing(models.Principal{ID: primitive.NewObjectID(), Role: models.RoleAdmin}, listing))
	assert.False(t, CanMutateListing(models.Principal{ID: primitive.NewObjectID(), Role: models.RoleHost}, listing))
	assert.False(t, CanMutateListing(models.Principal{ID: hostID, Role: models.RoleUser}, listing))
}
