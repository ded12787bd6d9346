package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// User validation errors.
var (
	ErrInvalidUserID         = errors.New("Invalid User Id.")
	ErrBlankName             = errors.New("Name cannot be blank.")
	ErrInvalidEmail          = errors.New("Invalid email address.")
	ErrInvalidBorrowerStatus = errors.New("Invalid Borrower Status.")
)

// MinUserID is the smallest valid user id. userFields enforces it with gte=100.
const MinUserID = 100

// BorrowerStatus is a user's standing with the library.
type BorrowerStatus string

const (
	Active     BorrowerStatus = "ACTIVE"
	Delinquent BorrowerStatus = "DELINQUENT"
)

// userFields carries the NewUser arguments through validation.
type userFields struct {
	ID     int            `validate:"gte=100"`
	Name   string         `validate:"notblank"`
	Email  string         `validate:"email"`
	Status BorrowerStatus `validate:"oneof=ACTIVE DELINQUENT"`
}

var userErrors = map[string]error{
	"ID":     ErrInvalidUserID,
	"Name":   ErrBlankName,
	"Email":  ErrInvalidEmail,
	"Status": ErrInvalidBorrowerStatus,
}

// User is a library member.
type User struct {
	id     int
	name   string
	email  string
	status BorrowerStatus
}

// NewUser validates its arguments and returns the user.
func NewUser(id int, name, email string, status BorrowerStatus) (*User, error) {
	fields := userFields{ID: id, Name: name, Email: email, Status: status}
	if err := check(fields, userErrors); err != nil {
		return nil, err
	}

	return &User{id: id, name: name, email: email, status: status}, nil
}

func (u *User) ID() int                        { return u.id }
func (u *User) Name() string                   { return u.name }
func (u *User) Email() string                  { return u.email }
func (u *User) BorrowerStatus() BorrowerStatus { return u.status }

// BorrowItem reports whether the user may borrow. Delinquent users may not.
func (u *User) BorrowItem() (string, error) {
	if u.status == Delinquent {
		return "", fmt.Errorf("%s cannot borrow an item due to their %s status.", u.name, strings.ToLower(string(u.status)))
	}
	return fmt.Sprintf("%s is eligible to borrow the item.", u.name), nil
}

// ReturnItem records a return. A delinquent user becomes active.
func (u *User) ReturnItem() string {
	if u.status == Delinquent {
		u.status = Active
		return fmt.Sprintf("Item successfully returned. %s has returned the item, status now changed to: %s.",
			u.name, strings.ToLower(string(u.status)))
	}
	return "Item successfully returned."
}
