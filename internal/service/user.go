package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserView is a user annotated relative to the requester
type UserView struct {
	User         models.User
	IsSubscribed bool
}

// UserService reads the user directory
type UserService struct {
	db            *gorm.DB
	subscriptions *SubscriptionService
}

func NewUserService(db *gorm.DB, subscriptions *SubscriptionService) *UserService {
	return &UserService{db: db, subscriptions: subscriptions}
}

// GetUser returns user id with is_subscribed computed for requester
func (s *UserService) GetUser(ctx context.Context, requester types.Requester, id uint) (*UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, NotFound("user")
		}
		return nil, errors.Wrap(err, "get user")
	}

	subscribed, err := s.subscriptions.IsSubscribed(ctx, requester, user.ID)
	if err != nil {
		return nil, err
	}
	return &UserView{User: user, IsSubscribed: subscribed}, nil
}

// Me returns the requester's own account
func (s *UserService) Me(ctx context.Context, requester types.Requester) (*UserView, error) {
	if requester.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	return s.GetUser(ctx, requester, requester.UserID)
}

// CreateUser registers an account with a bcrypt password hash. Registration
// itself belongs to the auth collaborator; this backs the seed command.
func (s *UserService) CreateUser(ctx context.Context, req *types.CreateUserRequest) (*models.User, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" {
		return nil, Validation("email and username are required")
	}
	if req.Password == "" {
		return nil, Validation("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     strings.TrimSpace(req.Username),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, Validation("a user with that email or username already exists")
		}
		return nil, errors.Wrap(err, "create user")
	}

	log.WithFields(log.Fields{"user_id": user.ID, "username": user.Username}).Info("user created")
	return user, nil
}
