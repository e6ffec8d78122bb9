package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/api/middleware"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/services"
)

// BookingHandler handles the booking lifecycle endpoints.
type BookingHandler struct {
	bookingService services.IBookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService services.IBookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

type createBookingRequest struct {
	PropertyID    string  `json:"property" form:"property"`
	TourPackageID string  `json:"tour_package" form:"tour_package"`
	CheckIn       string  `json:"check_in" form:"check_in" binding:"required"`
	CheckOut      string  `json:"check_out" form:"check_out" binding:"required"`
	Guests        int     `json:"guests" form:"guests" binding:"required"`
	TotalPrice    float64 `json:"total_price" form:"total_price" binding:"required"`
	PaymentNote   string  `json:"payment_note" form:"payment_note"`
}

func (r createBookingRequest) toInput() (services.BookingInput, error) {
	var input services.BookingInput

	if r.PropertyID != "" {
		id, err := primitive.ObjectIDFromHex(r.PropertyID)
		if err != nil {
			return input, err
		}
		input.PropertyID = &id
	}
	if r.TourPackageID != "" {
		id, err := primitive.ObjectIDFromHex(r.TourPackageID)
		if err != nil {
			return input, err
		}
		input.TourPackageID = &id
	}

	checkIn, err := parseDate(r.CheckIn)
	if err != nil {
		return input, err
	}
	checkOut, err := parseDate(r.CheckOut)
	if err != nil {
		return input, err
	}

	input.CheckIn = checkIn
	input.CheckOut = checkOut
	input.Guests = r.Guests
	input.TotalPrice = r.TotalPrice
	input.PaymentNote = r.PaymentNote
	return input, nil
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD date.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", value)
}

// CreateBooking handles POST /v1/bookings. The body is either plain JSON or
// a multipart form carrying payment-proof files under "payment_proof".
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	var req createBookingRequest
	var uploads []services.ImageUpload

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Expected multipart form: " + err.Error()})
			return
		}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
			return
		}
		var closeFiles func()
		uploads, closeFiles, err = openUploads(form.File["payment_proof"])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read uploaded files"})
			return
		}
		defer closeFiles()
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
			return
		}
	}

	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid booking fields: " + err.Error()})
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), principal, input, uploads)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking created successfully", "booking": booking})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	bookingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.FindByID(c.Request.Context(), bookingID, principal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking retrieved", "booking": booking})
}

// bookingFilterFromQuery builds the common list/filter query.
func bookingFilterFromQuery(c *gin.Context) (services.BookingFilter, bool) {
	var filter services.BookingFilter

	if statusStr := c.Query("status"); statusStr != "" {
		if !models.ValidBookingStatus(statusStr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown booking status " + statusStr})
			return filter, false
		}
		status := models.BookingStatus(statusStr)
		filter.Status = &status
	}
	if payStr := c.Query("payment_status"); payStr != "" {
		if !models.ValidPaymentStatus(payStr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown payment status " + payStr})
			return filter, false
		}
		pay := models.PaymentStatus(payStr)
		filter.PaymentStatus = &pay
	}
	if kindStr := c.Query("kind"); kindStr != "" {
		if !models.ValidListingKind(kindStr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown listing kind " + kindStr})
			return filter, false
		}
		kind := models.ListingKind(kindStr)
		filter.Kind = &kind
	}
	if fromStr := c.Query("from"); fromStr != "" {
		from, err := parseDate(fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid from date"})
			return filter, false
		}
		filter.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := parseDate(toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid to date"})
			return filter, false
		}
		filter.To = &to
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	return filter, true
}

// ListBookings handles GET /v1/bookings: own bookings for users, bookings
// against owned listings for hosts, everything for admins.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	filter, ok := bookingFilterFromQuery(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListForPrincipal(c.Request.Context(), principal, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bookings retrieved", "data": bookings})
}

type updateBookingRequest struct {
	CheckIn     *string `json:"check_in"`
	CheckOut    *string `json:"check_out"`
	Guests      *int    `json:"guests"`
	PaymentNote *string `json:"payment_note"`
	RemoveProof []string `json:"remove_proof"`
}

// UpdateBooking handles PATCH /v1/bookings/:id (requester update).
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	bookingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	var patch services.BookingPatch
	if req.CheckIn != nil {
		t, err := parseDate(*req.CheckIn)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid check_in date"})
			return
		}
		patch.CheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := parseDate(*req.CheckOut)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid check_out date"})
			return
		}
		patch.CheckOut = &t
	}
	patch.Guests = req.Guests
	patch.PaymentNote = req.PaymentNote
	patch.RemoveProofImages = req.RemoveProof

	booking, err := h.bookingService.UpdateByRequester(c.Request.Context(), bookingID, principal, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking updated successfully", "booking": booking})
}

// AddPaymentProof handles POST /v1/bookings/:id/payment-proof (multipart).
func (h *BookingHandler) AddPaymentProof(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	bookingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Expected multipart form: " + err.Error()})
		return
	}

	uploads, closeFiles, err := openUploads(form.File["payment_proof"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read uploaded files"})
		return
	}
	defer closeFiles()

	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No payment_proof files provided"})
		return
	}

	booking, err := h.bookingService.UpdateByRequester(c.Request.Context(), bookingID, principal, services.BookingPatch{AddProofImages: uploads})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment proof uploaded successfully", "booking": booking})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateStatus handles PATCH /v1/bookings/:id/status (host/admin).
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	bookingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	booking, err := h.bookingService.UpdateStatusByOwner(c.Request.Context(), bookingID, principal, models.BookingStatus(req.Status), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking status updated successfully", "booking": booking})
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// UpdatePaymentStatus handles PATCH /v1/bookings/:id/payment-status
// (host/admin).
func (h *BookingHandler) UpdatePaymentStatus(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	bookingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req updatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	booking, err := h.bookingService.UpdatePaymentStatus(c.Request.Context(), bookingID, principal, models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated successfully", "booking": booking})
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

// CancelBooking handles DELETE /v1/bookings/:id (requester soft cancel).
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	bookingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req cancelBookingRequest
	// The cancel body is optional.
	_ = c.ShouldBindJSON(&req)

	booking, err := h.bookingService.CancelByRequester(c.Request.Context(), bookingID, principal, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully", "booking": booking})
}
