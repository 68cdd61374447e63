package service

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/iliyamo/user-management/internal/model"
)

// SignUpInput is the registration form submitted by an administrator.
type SignUpInput struct {
	Email    string `json:"email" form:"email"`
	FullName string `json:"fullName" form:"fullName"`
	Phone    string `json:"phone" form:"phone"`
	Role     string `json:"role" form:"role"`
}

// Sanitize normalizes whitespace and casing in place.
func (in *SignUpInput) Sanitize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Role = strings.ToUpper(strings.TrimSpace(in.Role))
	if in.Role == "" {
		in.Role = model.RoleUser
	}
}

func (in SignUpInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(6, 255), is.Email),
		validation.Field(&in.FullName, validation.Length(1, 200)),
		validation.Field(&in.Phone, validation.Length(7, 15), is.Digit),
		validation.Field(&in.Role, validation.Required, validation.In(model.RoleAdmin, model.RoleUser)),
	)
}

// UserUpdate is a partial profile update.  Nil fields are left untouched.
type UserUpdate struct {
	FullName *string `json:"fullName" form:"fullName"`
	Phone    *string `json:"phone" form:"phone"`
	Role     *string `json:"role" form:"role"`
}

// ErrNothingToUpdate is returned by Validate for an empty payload.
var ErrNothingToUpdate = errors.New("nothing to update")

// Sanitize trims the provided fields and upper-cases the role.
func (u *UserUpdate) Sanitize() {
	if u.FullName != nil {
		s := strings.TrimSpace(*u.FullName)
		u.FullName = &s
	}
	if u.Phone != nil {
		s := strings.TrimSpace(*u.Phone)
		u.Phone = &s
	}
	if u.Role != nil {
		s := strings.ToUpper(strings.TrimSpace(*u.Role))
		u.Role = &s
	}
}

// Validate checks the update on behalf of caller.  Only administrators may
// change roles.
func (u UserUpdate) Validate(caller model.Identity) error {
	if u.FullName == nil && u.Phone == nil && u.Role == nil {
		return ErrNothingToUpdate
	}
	roleRules := []validation.Rule{validation.NilOrNotEmpty, validation.In(model.RoleAdmin, model.RoleUser)}
	if !caller.IsAdmin() {
		roleRules = append([]validation.Rule{validation.By(adminOnly)}, roleRules...)
	}
	return validation.ValidateStruct(&u,
		validation.Field(&u.FullName, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&u.Phone, validation.Length(7, 15), is.Digit),
		validation.Field(&u.Role, roleRules...),
	)
}

func adminOnly(v interface{}) error {
	if s, ok := v.(*string); ok && s != nil {
		return errors.New("can only be changed by an administrator")
	}
	return nil
}

func strPtr(s string) *string { return &s }
