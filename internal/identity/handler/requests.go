package handler

import (
	"strings"
	"time"

	"impact/internal/identity/models"
	dErrors "impact/pkg/domain-errors"
)

const minPasswordLength = 8

// LoginRequest is the HTTP request body for POST /login/username.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "password is required")
	}
	return nil
}

// SignupRequest is the HTTP request body for POST /members/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Surname  string `json:"surname,omitempty"`
	Username string `json:"username,omitempty"`
}

func (r *SignupRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if len(r.Password) < minPasswordLength {
		return dErrors.Newf(dErrors.CodeBadRequest, "password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// AddMemberRequest is the HTTP request body for POST /members/add.
type AddMemberRequest struct {
	Name             string  `json:"name"`
	Surname          string  `json:"surname"`
	Email            string  `json:"email"`
	Username         string  `json:"username,omitempty"`
	PhoneNumber      *string `json:"phone_number,omitempty"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	Role             string  `json:"role"`
	SendWelcomeEmail bool    `json:"send_welcome_email"`

	parsedRole models.Role
	parsedDOB  *time.Time
}

func (r *AddMemberRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Surname = strings.TrimSpace(r.Surname)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" || r.Surname == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name and surname are required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}

	role, err := models.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedRole = role

	if r.DateOfBirth != nil && strings.TrimSpace(*r.DateOfBirth) != "" {
		dob, err := time.Parse("2006-01-02", strings.TrimSpace(*r.DateOfBirth))
		if err != nil {
			return dErrors.New(dErrors.CodeBadRequest, "date_of_birth must be formatted YYYY-MM-DD")
		}
		r.parsedDOB = &dob
	}
	return nil
}

// ParsedRole returns the validated role.
func (r *AddMemberRequest) ParsedRole() models.Role {
	return r.parsedRole
}

// ParsedDateOfBirth returns the validated date of birth, or nil.
func (r *AddMemberRequest) ParsedDateOfBirth() *time.Time {
	return r.parsedDOB
}
