package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/access"
)

// UserTypes lists the selectable user types, for the admin CLI and API docs.
var UserTypes = []UserType{
	{Name: "Admin (HOD)", Value: access.Admin},
	{Name: "Staff", Value: access.Staff},
	{Name: "Student", Value: access.Student},
}

type UserType struct {
	Name  string      `json:"name"`
	Value access.Role `json:"value"`
}

type User struct {
	ID           string      `json:"id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Email        string      `json:"email"`
	UserType     access.Role `json:"user_type"`
	IsActive     bool        `json:"is_active"`
	PasswordHash []byte      `json:"-"`
	CreatedAt    time.Time   `json:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at"` // UTC
	LastLogin    time.Time   `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Principal returns the access principal of an authenticated user.
func (u User) Principal() *access.Principal {
	return &access.Principal{Email: u.Email, Role: u.UserType}
}

func (u User) IsAdmin() bool   { return u.UserType == access.Admin }
func (u User) IsStaff() bool   { return u.UserType == access.Staff }
func (u User) IsStudent() bool { return u.UserType == access.Student }

// NewUser contains information needed to create a new User.
type NewUser struct {
	FirstName       string      `json:"first_name" validate:"required,personname"`
	LastName        string      `json:"last_name" validate:"omitempty,personname"`
	Email           string      `json:"email" validate:"required,email"`
	UserType        access.Role `json:"user_type" validate:"usertype"`
	Password        string      `json:"password" validate:"required"`
	PasswordConfirm string      `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// GetFilter selects a single User. The first non-empty field is used.
type GetFilter struct {
	ID    string
	Email string
}

// PasswordReset sets a new password on the User with Email.
type PasswordReset struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (pr *PasswordReset) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
