package dto

import (
	"time"

	"github.com/spec-kit/user-service/internal/domain"
)

// UserRequest payload for new users.
type UserRequest struct {
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Addresses []AddressRequest `json:"addresses"`
	Phones    []PhoneRequest   `json:"phones"`
}

// UserUpdateRequest carries optional profile fields. Absent fields are kept.
type UserUpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Patch converts the request into a domain patch.
func (r UserUpdateRequest) Patch() domain.UserPatch {
	return domain.UserPatch{Name: r.Name, Email: r.Email, Password: r.Password}
}

// AddressRequest is used both for creation and partial updates.
type AddressRequest struct {
	Street     *string `json:"street"`
	Number     *int64  `json:"number"`
	Complement *string `json:"complement"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	ZipCode    *string `json:"zip_code"`
}

// Patch converts the request into a domain patch.
func (r AddressRequest) Patch() domain.AddressPatch {
	return domain.AddressPatch{
		Street:     r.Street,
		Number:     r.Number,
		Complement: r.Complement,
		City:       r.City,
		State:      r.State,
		ZipCode:    r.ZipCode,
	}
}

// Address builds a new domain address from the request.
func (r AddressRequest) Address() domain.Address {
	var a domain.Address
	r.Patch().Apply(&a)
	return a
}

// PhoneRequest is used both for creation and partial updates.
type PhoneRequest struct {
	AreaCode *string `json:"area_code"`
	Number   *string `json:"number"`
}

// Patch converts the request into a domain patch.
func (r PhoneRequest) Patch() domain.PhonePatch {
	return domain.PhonePatch{AreaCode: r.AreaCode, Number: r.Number}
}

// Phone builds a new domain phone from the request.
func (r PhoneRequest) Phone() domain.Phone {
	var p domain.Phone
	r.Patch().Apply(&p)
	return p
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AddressResponse is the public view of an address.
type AddressResponse struct {
	ID         int64  `json:"id"`
	Street     string `json:"street"`
	Number     int64  `json:"number"`
	Complement string `json:"complement,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
}

// PhoneResponse is the public view of a phone.
type PhoneResponse struct {
	ID       int64  `json:"id"`
	AreaCode string `json:"area_code"`
	Number   string `json:"number"`
}

// UserResponse is the public view of a user. It never carries the password hash.
type UserResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Addresses []AddressResponse `json:"addresses"`
	Phones    []PhoneResponse   `json:"phones"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Addresses: make([]AddressResponse, 0, len(u.Addresses)),
		Phones:    make([]PhoneResponse, 0, len(u.Phones)),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	for i := range u.Addresses {
		resp.Addresses = append(resp.Addresses, NewAddressResponse(&u.Addresses[i]))
	}
	for i := range u.Phones {
		resp.Phones = append(resp.Phones, NewPhoneResponse(&u.Phones[i]))
	}
	return resp
}

// NewAddressResponse maps a domain address.
func NewAddressResponse(a *domain.Address) AddressResponse {
	return AddressResponse{
		ID:         a.ID,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		City:       a.City,
		State:      a.State,
		ZipCode:    a.ZipCode,
	}
}

// NewPhoneResponse maps a domain phone.
func NewPhoneResponse(p *domain.Phone) PhoneResponse {
	return PhoneResponse{ID: p.ID, AreaCode: p.AreaCode, Number: p.Number}
}
