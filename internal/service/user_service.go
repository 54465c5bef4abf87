package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go-storefront-api/internal/apperr"
	"go-storefront-api/internal/model"
	"go-storefront-api/internal/repository"
	"go-storefront-api/pkg/validator"
)

// UpdateProfileRequest is the self-service surface: profile fields and the
// address book, never role or active flag.
type UpdateProfileRequest struct {
	FullName  *string         `json:"fullName"`
	Phone     *string         `json:"phone"`
	Addresses []model.Address `json:"addresses"`
}

// AdminUserUpdate additionally covers role and account state.
type AdminUserUpdate struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

type UserService interface {
	GetByID(id int) (*model.UserResponse, error)
	List() ([]model.UserResponse, error)
	UpdateProfile(id int, req *UpdateProfileRequest) (*model.UserResponse, error)
	AdminUpdate(id int, req *AdminUserUpdate) (*model.UserResponse, error)
	Delete(id int) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(id int) (*model.UserResponse, error) {
	user, err := s.getUser(id)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) List() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}
	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}
	return responses, nil
}

func (s *userService) UpdateProfile(id int, req *UpdateProfileRequest) (*model.UserResponse, error) {
	user, err := s.getUser(id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Addresses != nil {
		for i := range req.Addresses {
			if errs := validator.ValidateStruct(&req.Addresses[i]); len(errs) > 0 {
				first := errs[0]
				return nil, apperr.Validation(fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag))
			}
		}
		user.Addresses = req.Addresses
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) AdminUpdate(id int, req *AdminUserUpdate) (*model.UserResponse, error) {
	user, err := s.getUser(id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil {
		if !model.ValidRoles[*req.Role] {
			return nil, apperr.Validation("unknown role: " + *req.Role)
		}
		user.Role = *req.Role
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) Delete(id int) error {
	if _, err := s.getUser(id); err != nil {
		return err
	}
	return s.userRepo.Delete(id)
}

func (s *userService) getUser(id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}
