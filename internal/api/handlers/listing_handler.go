package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/api/middleware"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/services"
)

// ListingHandler handles listing CRUD and image management for both
// properties and tour packages.
type ListingHandler struct {
	listingService services.IListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listingService services.IListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// openUploads converts multipart file headers into service uploads. The
// returned closer must run after the service call.
func openUploads(files []*multipart.FileHeader) ([]services.ImageUpload, func(), error) {
	var uploads []services.ImageUpload
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		uploads = append(uploads, services.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}

// CreateListing handles POST /v1/listings. The body is multipart: listing
// fields as form values plus one or more files under "images".
func (h *ListingHandler) CreateListing(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Expected multipart form: " + err.Error()})
		return
	}

	getValue := func(key string) string {
		if vals := form.Value[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	input := services.ListingInput{
		Kind:        models.ListingKind(getValue("kind")),
		Title:       getValue("title"),
		Description: getValue("description"),
		City:        getValue("city"),
		Address:     getValue("address"),
	}
	input.Price, _ = strconv.ParseFloat(getValue("price"), 64)
	input.MaxGuests, _ = strconv.Atoi(getValue("max_guests"))
	input.Bedrooms, _ = strconv.Atoi(getValue("bedrooms"))
	input.DurationDays, _ = strconv.Atoi(getValue("duration_days"))
	if departure := getValue("departure_at"); departure != "" {
		t, err := time.Parse(time.RFC3339, departure)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid departure_at, expected RFC 3339"})
			return
		}
		input.DepartureAt = &t
	}

	uploads, closeFiles, err := openUploads(form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read uploaded images"})
		return
	}
	defer closeFiles()

	listing, err := h.listingService.CreateListing(c.Request.Context(), principal, input, uploads)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Listing created successfully", "data": listing})
}

// GetListing handles GET /v1/listings/:id (public).
func (h *ListingHandler) GetListing(c *gin.Context) {
	listingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	listing, err := h.listingService.FindListingByID(c.Request.Context(), listingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing retrieved", "data": listing})
}

// ListListings handles GET /v1/listings (public) with optional filters.
func (h *ListingHandler) ListListings(c *gin.Context) {
	var filter services.ListingFilter

	if kindStr := c.Query("kind"); kindStr != "" {
		if !models.ValidListingKind(kindStr) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown listing kind " + kindStr})
			return
		}
		kind := models.ListingKind(kindStr)
		filter.Kind = &kind
	}
	if city := c.Query("city"); city != "" {
		filter.City = &city
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ListingStatus(statusStr)
		filter.Status = &status
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	listings, err := h.listingService.ListListings(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listings retrieved", "data": listings})
}

// ListOwnListings handles GET /v1/host/listings.
func (h *ListingHandler) ListOwnListings(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	hostID := principal.ID
	filter := services.ListingFilter{HostID: &hostID}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	listings, err := h.listingService.ListListings(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listings retrieved", "data": listings})
}

// UpdateListing handles PATCH /v1/listings/:id with a JSON body of mutable
// fields.
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	listingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	listing, err := h.listingService.UpdateListing(c.Request.Context(), listingID, principal, updates)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing updated successfully", "data": listing})
}

// AddImages handles POST /v1/listings/:id/images (multipart).
func (h *ListingHandler) AddImages(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	listingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Expected multipart form: " + err.Error()})
		return
	}

	uploads, closeFiles, err := openUploads(form.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to read uploaded images"})
		return
	}
	defer closeFiles()

	listing, err := h.listingService.AddImages(c.Request.Context(), listingID, principal, uploads)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Images added successfully", "data": listing})
}

type removeImageRequest struct {
	Key string `json:"key" binding:"required"`
}

// RemoveImage handles DELETE /v1/listings/:id/images.
func (h *ListingHandler) RemoveImage(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	listingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	var req removeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return
	}

	listing, err := h.listingService.RemoveImage(c.Request.Context(), listingID, principal, req.Key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image removed successfully", "data": listing})
}

// DeleteListing handles DELETE /v1/listings/:id (soft delete).
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)
	listingID, ok := parseObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.listingService.DeleteListing(c.Request.Context(), listingID, principal); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted successfully"})
}
