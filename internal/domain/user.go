package domain

import "time"

// User is the domain model for an account holder. Email is the unique identity.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Addresses    []Address `json:"addresses"`
	Phones       []Phone   `json:"phones"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Address is a postal address owned by a user.
type Address struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	Street     string `json:"street"`
	Number     int64  `json:"number"`
	Complement string `json:"complement"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
}

// Phone is a phone number owned by a user.
type Phone struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	AreaCode string `json:"area_code"`
	Number   string `json:"number"`
}

// UserPatch carries optional profile changes. Nil fields keep the stored value.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
}

// AddressPatch carries optional address changes.
type AddressPatch struct {
	Street     *string
	Number     *int64
	Complement *string
	City       *string
	State      *string
	ZipCode    *string
}

// Apply merges the non-nil fields of p into a.
func (p AddressPatch) Apply(a *Address) {
	if p.Street != nil {
		a.Street = *p.Street
	}
	if p.Number != nil {
		a.Number = *p.Number
	}
	if p.Complement != nil {
		a.Complement = *p.Complement
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.State != nil {
		a.State = *p.State
	}
	if p.ZipCode != nil {
		a.ZipCode = *p.ZipCode
	}
}

// PhonePatch carries optional phone changes.
type PhonePatch struct {
	AreaCode *string
	Number   *string
}

// Apply merges the non-nil fields of p into ph.
func (p PhonePatch) Apply(ph *Phone) {
	if p.AreaCode != nil {
		ph.AreaCode = *p.AreaCode
	}
	if p.Number != nil {
		ph.Number = *p.Number
	}
}
