package handlers_test

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/api/middleware"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/services"
)

// --- Mocks ---

// MockAccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, name, email, password, phone string, role models.Role) (*models.Account, error) {
	args := m.Called(ctx, name, email, password, phone, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) FindByID(ctx context.Context, accountID primitive.ObjectID) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, accountID primitive.ObjectID, updates map[string]interface{}) (*models.Account, error) {
	args := m.Called(ctx, accountID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) SetRole(ctx context.Context, accountID primitive.ObjectID, role models.Role) error {
	args := m.Called(ctx, accountID, role)
	return args.Error(0)
}

func (m *MockAccountService) SetStatus(ctx context.Context, accountID primitive.ObjectID, status models.AccountStatus) error {
	args := m.Called(ctx, accountID, status)
	return args.Error(0)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, role *models.Role, limit int) ([]models.Account, error) {
	args := m.Called(ctx, role, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

// MockBookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, requester models.Principal, input services.BookingInput, proofImages []services.ImageUpload) (*models.Booking, error) {
	args := m.Called(ctx, requester, input, proofImages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) FindByID(ctx context.Context, bookingID primitive.ObjectID, principal models.Principal) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) ListForPrincipal(ctx context.Context, principal models.Principal, filter services.BookingFilter) ([]models.Booking, error) {
	args := m.Called(ctx, principal, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateByRequester(ctx context.Context, bookingID primitive.ObjectID, requester models.Principal, patch services.BookingPatch) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, requester, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateStatusByOwner(ctx context.Context, bookingID primitive.ObjectID, owner models.Principal, newStatus models.BookingStatus, reason string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, owner, newStatus, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) UpdatePaymentStatus(ctx context.Context, bookingID primitive.ObjectID, owner models.Principal, newPaymentStatus models.PaymentStatus) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, owner, newPaymentStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) CancelByRequester(ctx context.Context, bookingID primitive.ObjectID, requester models.Principal, reason string) (*models.Booking, error) {
	args := m.Called(ctx, bookingID, requester, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

// --- Helpers ---

// asPrincipal injects an authenticated principal the way AuthMiddleware
// would, so handler tests skip token plumbing.
func asPrincipal(p models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyPrincipal, p)
		c.Next()
	}
}
