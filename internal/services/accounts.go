package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/auth"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

// AccountService covers registration, login and the current-user lookup.
type AccountService struct {
	users            store.Users
	doctors          store.Doctors
	tokens           *auth.TokenManager
	hasher           auth.PasswordHasher
	allowAdminSignup bool
	log              zerolog.Logger
	now              func() time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns a session token for it. Doctors
// start unapproved and get a placeholder profile.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role, err := models.ParseRole(strings.TrimSpace(in.Role))
	if err != nil {
		return nil, apperr.Validation("Invalid role")
	}
	if role == models.RoleAdmin && !s.allowAdminSignup {
		return nil, apperr.Forbidden("Admin registration is disabled")
	}

	user, err := s.create(ctx, in, role)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateAdmin provisions an admin account regardless of the signup policy.
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	return s.create(ctx, RegisterInput{Name: name, Email: email, Password: password}, models.RoleAdmin)
}

func (s *AccountService) create(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" {
		return nil, apperr.Validation("Name, email and password are required")
	}
	// bcrypt rejects input over 72 bytes, whatever the character count.
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperr.Validation("Password is too long")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.Validation("Password is too long")
		}
		return nil, apperr.Internal(err)
	}

	now := s.now()
	user := &models.User{
		ID:         primitive.NewObjectID(),
		Name:       name,
		Email:      email,
		Password:   hash,
		Role:       role,
		IsApproved: role.ApprovedOnSignup(),
		Phone:      strings.TrimSpace(in.Phone),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal(err)
	}

	if user.Role == models.RoleDoctor {
		profile := &models.DoctorProfile{
			UserID:         user.ID,
			Specialization: models.DefaultSpecialization,
			Bio:            models.DefaultBio,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.doctors.Create(ctx, profile); err != nil && !errors.Is(err, store.ErrDuplicate) {
			s.log.Error().Err(err).Str("userId", user.ID.Hex()).Msg("failed to seed doctor profile")
			if derr := s.users.Delete(context.WithoutCancel(ctx), user.ID); derr != nil {
				s.log.Error().Err(derr).Str("userId", user.ID.Hex()).Msg("failed to remove user after profile error")
			}
			return nil, apperr.Internal(err)
		}
	}

	s.log.Info().Str("userId", user.ID.Hex()).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login checks credentials and returns a fresh token. Doctors cannot log in
// until an admin approves them.
func (s *AccountService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Validation("Invalid credentials")
		}
		return nil, apperr.Internal(err)
	}
	if !s.hasher.Check(password, user.Password) {
		return nil, apperr.Validation("Invalid credentials")
	}
	if user.Role == models.RoleDoctor && !user.IsApproved {
		return nil, apperr.Forbidden("Doctor not approved yet")
	}
	return s.issue(user)
}

func (s *AccountService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func (s *AccountService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
