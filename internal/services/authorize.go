package services

import (
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
)

// Authorization scoping: pure predicates over already-loaded entities. The
// referenced listing must be resolved before these can run; none of them
// touch storage.

// CanAccessBooking reports whether the principal may read the booking.
// Users see their own bookings, hosts see bookings against their listings,
// admins see everything.
func CanAccessBooking(p models.Principal, booking *models.Booking, listing *models.Listing) bool {
	if p.IsAdmin() {
		return true
	}
	// The requester always sees their own booking, whatever their role.
	if booking.UserID == p.ID {
		return true
	}
	return p.Role == models.RoleHost && listing != nil && listing.HostID == p.ID
}

// CanMutateBookingAsOwner reports whether the principal may change a
// booking's status or payment status: the host owning the referenced
// listing, or an admin. Both remain bound by the state-machine rules.
func CanMutateBookingAsOwner(p models.Principal, listing *models.Listing) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == models.RoleHost && listing != nil && listing.HostID == p.ID
}

// CanMutateListing reports whether the principal may change the listing:
// the owning host or an admin.
func CanMutateListing(p models.Principal, listing *models.Listing) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == models.RoleHost && listing.HostID == p.ID
}
