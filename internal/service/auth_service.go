package service

import (
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"scraper-admin/internal/config"
	"scraper-admin/internal/models"
	"scraper-admin/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already exists")
)

// UserStore is the persistence the auth and user services need.
type UserStore interface {
	FindByEmail(email string) (*models.User, error)
	FindByID(id int) (*models.User, error)
	List(params utils.PaginationParams) ([]models.User, int, error)
	Create(user *models.User) error
	Update(user *models.User) error
	UpdatePassword(id int, passwordHash string) error
	Delete(id int) error
}

type AuthService struct {
	userRepo UserStore
	cfg      *config.Config
}

func NewAuthService(userRepo UserStore, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (s *AuthService) Login(req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := utils.GenerateAccessToken(*user, s.cfg.JWTSecret, s.cfg.JWTAccessExpire)
	if err != nil {
		return nil, errors.New("failed to generate access token")
	}

	return &models.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		User:        *user,
	}, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*utils.JWTClaims, error) {
	return utils.ValidateToken(tokenString, s.cfg.JWTSecret)
}

func (s *AuthService) GetUserByID(id int) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// UserService backs the admin user screens.
type UserService struct {
	userRepo UserStore
}

func NewUserService(userRepo UserStore) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List(params utils.PaginationParams) ([]models.User, int, error) {
	return s.userRepo.List(params)
}

func (s *UserService) Get(id int) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) Create(req models.UserCreateRequest) (*models.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < 8 {
		return nil, newValidationError("password must be at least 8 characters")
	}
	if err := s.ensureEmailFree(email, 0); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: passwordHash,
		IsSuperuser:  req.IsSuperuser,
		IsActive:     true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Update applies only the fields present in req. An empty password leaves the current one.
func (s *UserService) Update(id int, req models.UserUpdateRequest) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			if err := s.ensureEmailFree(email, id); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 8 {
			return nil, newValidationError("password must be at least 8 characters")
		}
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, errors.New("failed to hash password")
		}
		if err := s.userRepo.UpdatePassword(id, hash); err != nil {
			return nil, fmt.Errorf("failed to update password: %w", err)
		}
		user.PasswordHash = hash
	}
	return user, nil
}

func (s *UserService) Delete(id, currentUserID int) error {
	if id == currentUserID {
		return newValidationError("you cannot delete your own account")
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.userRepo.Delete(id)
}

func (s *UserService) ensureEmailFree(email string, selfID int) error {
	existing, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrEmailTaken
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", newValidationError("invalid email address")
	}
	return email, nil
}
