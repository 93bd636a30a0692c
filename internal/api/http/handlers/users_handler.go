package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/dto"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/service"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// UserOperations is the service surface used by UsersHandler.
type UserOperations interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	DeleteByEmail(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, subject string, patch domain.UserPatch) (*domain.User, error)
	AddAddress(ctx context.Context, subject string, address domain.Address) (*domain.Address, error)
	UpdateAddress(ctx context.Context, subject string, id int64, patch domain.AddressPatch) (*domain.Address, error)
	AddPhone(ctx context.Context, subject string, phone domain.Phone) (*domain.Phone, error)
	UpdatePhone(ctx context.Context, subject string, id int64, patch domain.PhonePatch) (*domain.Phone, error)
}

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	users UserOperations
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users UserOperations) *UsersHandler {
	return &UsersHandler{users: users}
}

// Register handles POST /users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	in := service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password}
	for _, a := range req.Addresses {
		in.Addresses = append(in.Addresses, a.Address())
	}
	for _, p := range req.Phones {
		in.Phones = append(in.Phones, p.Phone())
	}

	user, err := h.users.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login handles POST /users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	session, err := h.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
	})
}

// FindByEmail handles GET /users?email=.
func (h *UsersHandler) FindByEmail(c *fiber.Ctx) error {
	user, err := h.users.FindByEmail(c.UserContext(), c.Query("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete handles DELETE /users/:email.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.DeleteByEmail(c.UserContext(), c.Params("email")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Update handles PUT /users.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	subject, err := requireSubject(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.UpdateProfile(c.UserContext(), subject, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// AddAddress handles POST /users/addresses.
func (h *UsersHandler) AddAddress(c *fiber.Ctx) error {
	subject, err := requireSubject(c)
	if err != nil {
		return err
	}
	var req dto.AddressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	address, err := h.users.AddAddress(c.UserContext(), subject, req.Address())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAddressResponse(address)})
}

// UpdateAddress handles PUT /users/addresses/:id.
func (h *UsersHandler) UpdateAddress(c *fiber.Ctx) error {
	subject, err := requireSubject(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.AddressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	address, err := h.users.UpdateAddress(c.UserContext(), subject, id, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAddressResponse(address)})
}

// AddPhone handles POST /users/phones.
func (h *UsersHandler) AddPhone(c *fiber.Ctx) error {
	subject, err := requireSubject(c)
	if err != nil {
		return err
	}
	var req dto.PhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	phone, err := h.users.AddPhone(c.UserContext(), subject, req.Phone())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPhoneResponse(phone)})
}

// UpdatePhone handles PUT /users/phones/:id.
func (h *UsersHandler) UpdatePhone(c *fiber.Ctx) error {
	subject, err := requireSubject(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.PhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	phone, err := h.users.UpdatePhone(c.UserContext(), subject, id, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPhoneResponse(phone)})
}

func requireSubject(c *fiber.Ctx) (string, error) {
	subject, ok := auth.SubjectFromContext(c)
	if !ok {
		return "", apperrors.NewUnauthenticated(auth.ErrUnauthenticated)
	}
	return subject, nil
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}
