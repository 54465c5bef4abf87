package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/repository"
	"go-storefront-api/pkg/jwt"
	"go-storefront-api/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type AuthService interface {
	Register(req *RegisterRequest) (*model.UserResponse, error)
	Login(req *LoginRequest) (*LoginResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	ids      *repository.IDAllocator
}

func NewAuthService(userRepo repository.UserRepository, ids *repository.IDAllocator) AuthService {
	return &authService{userRepo: userRepo, ids: ids}
}

func (s *authService) Register(req *RegisterRequest) (*model.UserResponse, error) {
	// 1. Validate request shape
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return nil, apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
	}

	// 2. Reject duplicate email
	if existing, err := s.userRepo.FindByEmail(req.Email); err == nil && existing.ID != 0 {
		return nil, apperr.Conflict("email is already registered")
	}

	// 3. Allocate identifier and persist
	id, err := s.ids.Allocate(&model.User{})
	if err != nil {
		return nil, apperr.Internal("could not allocate user id")
	}

	user := &model.User{
		BaseModel: model.BaseModel{ID: id},
		Email:     req.Email,
		FullName:  req.FullName,
		Phone:     req.Phone,
		Role:      model.RoleCustomer,
		IsActive:  true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperr.Internal("failed to hash password")
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) Login(req *LoginRequest) (*LoginResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.Validation("email and password are required")
	}

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized(ErrInvalidCredentials.Error())
		}
		return nil, err
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, apperr.Unauthorized(ErrUserInactive.Error())
	}

	// 3. Verify password
	if !user.CheckPassword(req.Password) {
		return nil, apperr.Unauthorized(ErrInvalidCredentials.Error())
	}

	// 4. Single session: rotate the token version
	newTokenVersion := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(user.ID, newTokenVersion); err != nil {
		return nil, apperr.Internal("failed to update session")
	}

	// 5. Generate JWT token with the fresh token version
	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.Role, newTokenVersion)
	if err != nil {
		return nil, apperr.Internal("failed to generate token")
	}

	return &LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}
