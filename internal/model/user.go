package model

import "golang.org/x/crypto/bcrypt"

// Role codes as constants
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleEditor   = "editor"
)

var ValidRoles = map[string]bool{
	RoleCustomer: true,
	RoleAdmin:    true,
	RoleEditor:   true,
}

// Address is stored as a JSON document, both on users (address book) and on
// orders (shipping address copy).
type Address struct {
	Label      string `json:"label,omitempty"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

type User struct {
	BaseModel
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName     string     `gorm:"type:varchar(255)" json:"fullName" validate:"required"`
	Phone        string     `gorm:"type:varchar(20)" json:"phone"`
	Role         string     `gorm:"type:varchar(20);default:'customer'" json:"role" validate:"omitempty,oneof=customer admin editor"`
	Addresses    []Address  `gorm:"serializer:json" json:"addresses,omitempty"`
	CartItems    []CartItem `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"cartItems,omitempty"`
	TokenVersion string     `gorm:"type:varchar(255);default:''" json:"-"` // For single session enforcement
	IsActive     bool       `gorm:"default:true" json:"isActive"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Phone     string     `json:"phone"`
	Role      string     `json:"role"`
	Addresses []Address  `json:"addresses,omitempty"`
	CartItems []CartItem `json:"cartItems,omitempty"`
	IsActive  bool       `json:"isActive"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      u.Role,
		Addresses: u.Addresses,
		CartItems: u.CartItems,
		IsActive:  u.IsActive,
	}
}
