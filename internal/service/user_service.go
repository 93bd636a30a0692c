package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/cache"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/repository"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// TokenIssuer mints session tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
}

// Authenticator confirms an email/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// ProfileCache is a read-through cache of user profiles keyed by email.
type ProfileCache interface {
	Get(ctx context.Context, email string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, emails ...string) error
}

// UserDependencies encapsulates collaborators for the user service.
type UserDependencies struct {
	UserRepo      repository.UserRepository
	AddressRepo   repository.AddressRepository
	PhoneRepo     repository.PhoneRepository
	Cache         ProfileCache
	Dispatcher    events.Dispatcher
	Tokens        TokenIssuer
	Authenticator Authenticator
	BcryptCost    int
	Logger        *zap.Logger
}

// UserService coordinates account registration, login and profile maintenance.
type UserService struct {
	users      repository.UserRepository
	addresses  repository.AddressRepository
	phones     repository.PhoneRepository
	cache      ProfileCache
	dispatcher events.Dispatcher
	tokens     TokenIssuer
	authn      Authenticator
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		addresses:  deps.AddressRepo,
		phones:     deps.PhoneRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		tokens:     deps.Tokens,
		authn:      deps.Authenticator,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
	}
}

// RegisterInput carries a new account with its initial contacts.
type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Addresses []domain.Address
	Phones    []domain.Phone
}

// Session is an issued bearer token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Register creates a new account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, emailConflict(in.Email)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Addresses:    append([]domain.Address{}, in.Addresses...),
		Phones:       append([]domain.Phone{}, in.Phones...),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, emailConflict(in.Email)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventUserRegistered, user.Email, events.UserPayload{UserID: user.ID, Name: user.Name}))
	return user, nil
}

// Login exchanges credentials for a bearer token.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	subject, err := s.authn.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	token, exp, err := s.tokens.Issue(subject)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Token: auth.BearerPrefix + token, ExpiresAt: exp}, nil
}

// FindByEmail returns the profile for email, consulting the cache first.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if s.cache != nil {
		user, err := s.cache.Get(ctx, email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("profile cache read failed", zap.String("email", email), zap.Error(err))
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, userLookupError(err, email)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, user); err != nil {
			s.logger.Warn("profile cache write failed", zap.String("email", email), zap.Error(err))
		}
	}
	return user, nil
}

// DeleteByEmail removes an account and everything it owns.
func (s *UserService) DeleteByEmail(ctx context.Context, email string) error {
	if err := s.users.DeleteByEmail(ctx, email); err != nil {
		return userLookupError(err, email)
	}
	s.invalidate(ctx, email)
	s.publish(ctx, events.NewEvent(events.EventUserDeleted, email, nil))
	return nil
}

// UpdateProfile merges patch into the account identified by subject.
func (s *UserService) UpdateProfile(ctx context.Context, subject string, patch domain.UserPatch) (*domain.User, error) {
	user, err := s.actingUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	previousEmail := user.Email

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.NewValidationError("name must not be empty", map[string]any{"field": "name"})
		}
		user.Name = *patch.Name
	}
	if patch.Email != nil && *patch.Email != user.Email {
		if strings.TrimSpace(*patch.Email) == "" {
			return nil, apperrors.NewValidationError("email must not be empty", map[string]any{"field": "email"})
		}
		exists, err := s.users.ExistsByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if exists {
			return nil, emailConflict(*patch.Email)
		}
		user.Email = *patch.Email
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, apperrors.NewValidationError("password must not be empty", map[string]any{"field": "password"})
		}
		hash, err := auth.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, emailConflict(user.Email)
		}
		return nil, apperrors.MapError(err)
	}

	s.invalidate(ctx, previousEmail, user.Email)
	payload := events.UserPayload{UserID: user.ID, Name: user.Name}
	if previousEmail != user.Email {
		payload.PreviousEmail = previousEmail
	}
	s.publish(ctx, events.NewEvent(events.EventUserUpdated, user.Email, payload))
	return user, nil
}

// AddAddress attaches a new address to the acting user.
func (s *UserService) AddAddress(ctx context.Context, subject string, address domain.Address) (*domain.Address, error) {
	user, err := s.actingUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	address.ID = 0
	address.UserID = user.ID
	if err := s.addresses.Create(ctx, &address); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, user.Email)
	s.publish(ctx, events.NewEvent(events.EventAddressAdded, user.Email, events.ContactPayload{UserID: user.ID, ContactID: address.ID}))
	return &address, nil
}

// UpdateAddress merges patch into an address owned by the acting user.
func (s *UserService) UpdateAddress(ctx context.Context, subject string, id int64, patch domain.AddressPatch) (*domain.Address, error) {
	user, err := s.actingUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	address, err := s.addresses.GetByID(ctx, id)
	if err != nil {
		return nil, contactLookupError(err, "address", id)
	}
	if address.UserID != user.ID {
		return nil, apperrors.NewNotFound("address", map[string]any{"id": id})
	}

	patch.Apply(address)
	if err := s.addresses.Update(ctx, address); err != nil {
		return nil, contactLookupError(err, "address", id)
	}
	s.invalidate(ctx, user.Email)
	s.publish(ctx, events.NewEvent(events.EventAddressUpdated, user.Email, events.ContactPayload{UserID: user.ID, ContactID: id}))
	return address, nil
}

// AddPhone attaches a new phone to the acting user.
func (s *UserService) AddPhone(ctx context.Context, subject string, phone domain.Phone) (*domain.Phone, error) {
	user, err := s.actingUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	phone.ID = 0
	phone.UserID = user.ID
	if err := s.phones.Create(ctx, &phone); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, user.Email)
	s.publish(ctx, events.NewEvent(events.EventPhoneAdded, user.Email, events.ContactPayload{UserID: user.ID, ContactID: phone.ID}))
	return &phone, nil
}

// UpdatePhone merges patch into a phone owned by the acting user.
func (s *UserService) UpdatePhone(ctx context.Context, subject string, id int64, patch domain.PhonePatch) (*domain.Phone, error) {
	user, err := s.actingUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	phone, err := s.phones.GetByID(ctx, id)
	if err != nil {
		return nil, contactLookupError(err, "phone", id)
	}
	if phone.UserID != user.ID {
		return nil, apperrors.NewNotFound("phone", map[string]any{"id": id})
	}

	patch.Apply(phone)
	if err := s.phones.Update(ctx, phone); err != nil {
		return nil, contactLookupError(err, "phone", id)
	}
	s.invalidate(ctx, user.Email)
	s.publish(ctx, events.NewEvent(events.EventPhoneUpdated, user.Email, events.ContactPayload{UserID: user.ID, ContactID: id}))
	return phone, nil
}

// actingUser loads the account behind an authenticated subject. The token
// may outlive the account, so a missing row is reported as unauthenticated.
func (s *UserService) actingUser(ctx context.Context, subject string) (*domain.User, error) {
	if subject == "" {
		return nil, apperrors.NewUnauthenticated(auth.ErrEmptySubject)
	}
	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthenticated(err)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *UserService) invalidate(ctx context.Context, emails ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, emails...); err != nil {
		s.logger.Warn("profile cache invalidation failed", zap.Strings("emails", emails), zap.Error(err))
	}
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publication failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

func validateRegistration(in RegisterInput) error {
	missing := []string{}
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Email) == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	return nil
}

func emailConflict(email string) error {
	return apperrors.NewConflict("email already registered", map[string]any{"email": email})
}

func userLookupError(err error, email string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	return apperrors.MapError(err)
}

func contactLookupError(err error, resource string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}
