package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
)

// IReportService exports booking data for offline analysis. Hosts get rows
// for their own listings only; admins get everything.
type IReportService interface {
	WriteBookingsCSV(ctx context.Context, principal models.Principal, filter BookingFilter, w io.Writer) error
}

type reportService struct {
	bookings IBookingService
	listings IListingService
}

// NewReportService creates a new ReportService.
func NewReportService(bookings IBookingService, listings IListingService) IReportService {
	return &reportService{bookings: bookings, listings: listings}
}

var bookingsCSVHeader = []string{
	"booking_id", "listing_id", "listing_kind", "listing_title",
	"check_in", "check_out", "nights", "guests",
	"total_price", "price_per_night",
	"status", "payment_status", "created_at",
}

// WriteBookingsCSV streams the principal's visible bookings as CSV. Listing
// titles are resolved per distinct listing; a listing deleted since the
// booking was made leaves the title blank rather than dropping the row.
func (s *reportService) WriteBookingsCSV(ctx context.Context, principal models.Principal, filter BookingFilter, w io.Writer) error {
	if principal.Role == models.RoleUser {
		return fmt.Errorf("%w: reports are restricted to hosts and admins", ErrForbidden)
	}

	if filter.Limit <= 0 {
		filter.Limit = 200
	}
	bookings, err := s.bookings.ListForPrincipal(ctx, principal, filter)
	if err != nil {
		return err
	}

	titles := map[primitive.ObjectID]string{}
	for _, b := range bookings {
		listingID, _ := b.ListingRef()
		if _, seen := titles[listingID]; seen {
			continue
		}
		listing, err := s.listings.FindListingByID(ctx, listingID)
		if err != nil {
			titles[listingID] = ""
			continue
		}
		titles[listingID] = listing.Title
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(bookingsCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, b := range bookings {
		listingID, kind := b.ListingRef()
		row := []string{
			b.ID.Hex(),
			listingID.Hex(),
			string(kind),
			titles[listingID],
			b.CheckIn.Format(time.RFC3339),
			b.CheckOut.Format(time.RFC3339),
			strconv.Itoa(b.Nights()),
			strconv.Itoa(b.Guests),
			strconv.FormatFloat(b.TotalPrice, 'f', 2, 64),
			strconv.FormatFloat(b.PricePerNight(), 'f', 2, 64),
			string(b.Status),
			string(b.PaymentStatus),
			b.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for booking %s: %w", b.ID.Hex(), err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
