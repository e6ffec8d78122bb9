package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/auth"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/config"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/db"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/models"
)

// IAccountService defines the interface for account-related operations.
type IAccountService interface {
	Register(ctx context.Context, name, email, password, phone string, role models.Role) (*models.Account, error)
	Authenticate(ctx context.Context, email, password string) (*models.Account, error)
	FindByID(ctx context.Context, accountID primitive.ObjectID) (*models.Account, error)
	UpdateProfile(ctx context.Context, accountID primitive.ObjectID, updates map[string]interface{}) (*models.Account, error)
	SetRole(ctx context.Context, accountID primitive.ObjectID, role models.Role) error
	SetStatus(ctx context.Context, accountID primitive.ObjectID, status models.AccountStatus) error
	ListAccounts(ctx context.Context, role *models.Role, limit int) ([]models.Account, error)
}

const accountsCollection = "accounts"

// accountService implements IAccountService.
type accountService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewAccountService creates a new AccountService.
func NewAccountService(database *mongo.Database, cfg *config.Config) IAccountService {
	return &accountService{db: database, cfg: cfg}
}

// Register creates a new account. Admin accounts cannot be self-registered.
// When email verification is required, the account starts in
// pending_verification and cannot log in until activated.
func (s *accountService) Register(ctx context.Context, name, email, password, phone string, role models.Role) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: name and a valid email are required", ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if role != models.RoleUser && role != models.RoleHost {
		return nil, fmt.Errorf("%w: role must be user or host", ErrValidation)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	status := models.AccountActive
	if s.cfg.RequireEmailVerification {
		status = models.AccountPendingVerification
	}

	now := time.Now().UTC()
	account := &models.Account{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		Role:         role,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	collection := s.db.Collection(accountsCollection)
	_, err = collection.InsertOne(ctx, account)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
		}
		return nil, fmt.Errorf("failed to insert account for %s: %w", email, err)
	}

	return account, nil
}

// Authenticate verifies credentials and the account status. Only active
// accounts may log in; the caller cannot distinguish a wrong password from a
// missing account.
func (s *accountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account models.Account
	err := s.db.Collection(accountsCollection).FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up account %s: %w", email, err)
	}

	if !auth.CheckPassword(account.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if !account.CanAuthenticate() {
		return nil, fmt.Errorf("%w: account is %s", ErrForbidden, account.Status)
	}

	return &account, nil
}

// FindByID returns an account by id. Soft-deleted accounts are not found.
func (s *accountService) FindByID(ctx context.Context, accountID primitive.ObjectID) (*models.Account, error) {
	var account models.Account
	filter := bson.M{"_id": accountID, "status": bson.M{"$ne": models.AccountDeleted}}
	err := s.db.Collection(accountsCollection).FindOne(ctx, filter).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, accountID.Hex())
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID.Hex(), err)
	}
	return &account, nil
}

// UpdateProfile updates the self-service profile fields. Role and status
// changes go through SetRole/SetStatus, which are admin operations.
func (s *accountService) UpdateProfile(ctx context.Context, accountID primitive.ObjectID, updates map[string]interface{}) (*models.Account, error) {
	allowed := bson.M{}
	for key, value := range updates {
		switch key {
		case "name", "phone":
			allowed[key] = value
		default:
			return nil, fmt.Errorf("%w: field %q cannot be updated", ErrValidation, key)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields provided", ErrValidation)
	}
	allowed["updated_at"] = time.Now().UTC()

	filter := bson.M{"_id": accountID, "status": bson.M{"$ne": models.AccountDeleted}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Account
	err := s.db.Collection(accountsCollection).FindOneAndUpdate(ctx, filter, bson.M{"$set": allowed}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, accountID.Hex())
		}
		return nil, fmt.Errorf("failed to update account %s: %w", accountID.Hex(), err)
	}
	return &updated, nil
}

// SetRole changes an account's role (admin operation).
func (s *accountService) SetRole(ctx context.Context, accountID primitive.ObjectID, role models.Role) error {
	if !models.ValidRole(string(role)) {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	return s.setField(ctx, accountID, bson.M{"role": role})
}

// SetStatus changes an account's status (admin operation). Deletion is a
// status transition, not a physical removal.
func (s *accountService) SetStatus(ctx context.Context, accountID primitive.ObjectID, status models.AccountStatus) error {
	if !models.ValidAccountStatus(string(status)) {
		return fmt.Errorf("%w: unknown account status %q", ErrValidation, status)
	}
	return s.setField(ctx, accountID, bson.M{"status": status})
}

func (s *accountService) setField(ctx context.Context, accountID primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	result, err := s.db.Collection(accountsCollection).UpdateByID(ctx, accountID, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", accountID.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: account %s", ErrNotFound, accountID.Hex())
	}
	return nil
}

// ListAccounts returns accounts, optionally filtered by role (admin
// operation).
func (s *accountService) ListAccounts(ctx context.Context, role *models.Role, limit int) ([]models.Account, error) {
	filter := bson.M{"status": bson.M{"$ne": models.AccountDeleted}}
	if role != nil {
		filter["role"] = *role
	}

	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(accountsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []models.Account
	if err = cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	return accounts, nil
}
