package user

import (
	"context"

	"team-workspace-server/internal/domain"
	"team-workspace-server/internal/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *domain.User) error
	Login(email, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
	DeactivateUser(id uint64) error
}

// CompanyProvider answers whether a company code is registered.
type CompanyProvider interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
	companies  CompanyProvider
}

// NewService creates a new user service
func NewService(repository UserRepository, companies CompanyProvider) Service {
	return &DefaultService{repository: repository, companies: companies}
}

// Register registers a new user under an existing company
func (s *DefaultService) Register(ctx context.Context, user *domain.User) error {
	exists, err := s.companies.CodeExists(ctx, user.CompanyCode)
	if err != nil {
		return err
	}
	if !exists {
		return errors.UnprocessableEntity("Unknown company code", nil)
	}

	// Check if user with email already exists
	_, err = s.repository.FindByEmail(user.Email)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if err == nil {
		return errors.UnprocessableEntity("User already registered", nil)
	}

	// Username must be unique, it is the lock-holder key
	_, err = s.repository.FindByUsername(user.Username)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if err == nil {
		return errors.Conflict("Username already taken", nil)
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't process password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.IsActive = true

	// Create user
	return s.repository.Create(user)
}

// Login authenticates a user
func (s *DefaultService) Login(email, password string) (*domain.User, error) {
	// Find user by email
	user, err := s.repository.FindByEmail(email)
	if err != nil {
		return nil, errors.Unauthorized("User not found", err)
	}

	// Check if user is active
	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	// Check password
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, errors.Unauthorized("Wrong password", err)
	}

	return user, nil
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	return s.repository.FindByID(id)
}

// DeactivateUser deactivates a user
func (s *DefaultService) DeactivateUser(id uint64) error {
	return s.repository.Deactivate(id)
}
