package model

import (
	"strings"
	"time"
)

// User is a brokerage customer.
type User struct {
	ID          string
	Email       string
	Name        string
	Surname     string
	DateOfBirth string
	Postcode    string
	CreatedAt   time.Time
}

// FullName joins the name parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}

// NewUser is the create-user form.
type NewUser struct {
	Email       string `form:"email"       validate:"required,email"`
	Name        string `form:"name"        validate:"required,max=100"`
	Surname     string `form:"surname"     validate:"required,max=100"`
	DateOfBirth string `form:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Postcode    string `form:"postcode"    validate:"required,max=16"`
}

// Validate normalises and checks the request.
func (n *NewUser) Validate() error {
	n.Email = strings.TrimSpace(n.Email)
	n.Name = strings.TrimSpace(n.Name)
	n.Surname = strings.TrimSpace(n.Surname)
	n.Postcode = strings.ToUpper(strings.TrimSpace(n.Postcode))
	ve := &ValidationError{}
	checkStruct(ve, n)
	return ve.orNil()
}

// FilterUsers returns users whose name, surname or email contains q (case-insensitive).
func FilterUsers(users []User, q string) []User {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return users
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.FullName()), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}
