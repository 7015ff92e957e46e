package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
	"github.com/benchmarksales/ai-outbound-backend/internal/utils"
)

// Compile-time check to ensure UserServiceImpl implements UserService
var _ UserService = (*UserServiceImpl)(nil)

// UserServiceImpl manages accounts and authentication
type UserServiceImpl struct {
	userRepo repositories.UserRepository
	cfg      *config.Config
}

// NewUserService creates a new UserServiceImpl
func NewUserService(userRepo repositories.UserRepository, cfg *config.Config) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Register creates a new user with a bcrypt-hashed password
func (s *UserServiceImpl) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if role == "" {
		role = models.RoleBroker
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a JWT
func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role, s.cfg)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

// SuperAdmins retrieves all super-admin users
func (s *UserServiceImpl) SuperAdmins(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.FindByRole(ctx, models.RoleSuperAdmin)
}
