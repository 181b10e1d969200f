package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"swasthya.org/internal/ids"
)

// Credentials carries the raw tokens extracted from a request by the
// transport layer. Either value may be empty.
type Credentials struct {
	Access  string
	Refresh string
}

// Session is the gate's verdict on a request. RenewedAccess is non-nil only
// when an expired access token was silently recovered through the refresh
// token; emitting it as a cookie is the transport's job, keeping this path
// free of response side effects.
type Session struct {
	User          *User
	RenewedAccess *IssuedToken
}

// TokenPair is the result of a login or an explicit refresh.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Service orchestrates the authentication gate: extract, verify, recover
// via refresh, load principal, admit or reject.
type Service struct {
	codec *Codec
	users UserStore
}

// NewService constructs the gate service.
func NewService(codec *Codec, users UserStore) (*Service, error) {
	if codec == nil {
		return nil, errors.New("auth: codec is required")
	}
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	return &Service{codec: codec, users: users}, nil
}

// Codec exposes the codec for transports that need TTLs for cookie stamping.
func (s *Service) Codec() *Codec { return s.codec }

// Authenticate runs the per-request gate state machine:
//
//	NoCredential -> AccessValid | AccessExpired -> (Refreshed | RefreshInvalid) -> Attached | Rejected
//
// Exactly one refresh attempt is made per request. Concurrent requests from
// the same client may each mint an equivalent renewed access token; that is
// idempotent and accepted.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	if creds.Access == "" && creds.Refresh == "" {
		return Session{}, ErrNoToken
	}

	var renewed *IssuedToken
	claims, err := s.codec.Verify(creds.Access, KindAccess)
	if err != nil {
		// Invalid and expired access tokens take the same recovery path.
		if creds.Refresh == "" {
			return Session{}, ErrSessionExpired
		}
		refreshClaims, err := s.codec.Verify(creds.Refresh, KindRefresh)
		if err != nil {
			return Session{}, ErrSessionExpired
		}
		role, err := ParseRole(refreshClaims.Role)
		if err != nil {
			return Session{}, ErrSessionExpired
		}
		token, err := s.codec.IssueAccess(refreshClaims.Subject, role)
		if err != nil {
			return Session{}, fmt.Errorf("auth: renew access token: %w", err)
		}
		claims = refreshClaims
		renewed = &token
	}

	user, err := s.loadActiveUser(ctx, claims.Subject)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, RenewedAccess: renewed}, nil
}

// Login verifies email/password credentials and mints a fresh token pair.
// All failure modes collapse to ErrInvalidCredentials so responses do not
// reveal which part was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, *User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !user.Active() {
		return TokenPair{}, nil, ErrAccountSuspended
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	pair, err := s.mintPair(user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, user, nil
}

// Refresh validates a refresh token and mints a new pair for its subject.
// Used by the explicit refresh endpoint; the gate's silent renewal path
// only mints an access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, *User, error) {
	claims, err := s.codec.Verify(refreshToken, KindRefresh)
	if err != nil {
		return TokenPair{}, nil, ErrSessionExpired
	}
	user, err := s.loadActiveUser(ctx, claims.Subject)
	if err != nil {
		return TokenPair{}, nil, err
	}
	pair, err := s.mintPair(user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, user, nil
}

// Registration is the input for self-service signup.
type Registration struct {
	Email     string
	Password  string
	Role      Role
	Hierarchy Hierarchy
}

// Register creates an active account. The elevated roles are assigned by an
// admin afterwards, never self-claimed at signup.
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	email := strings.TrimSpace(strings.ToLower(reg.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(reg.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	role := reg.Role
	if role == "" {
		role = RoleCitizen
	}
	if !role.Valid() || role == RoleHealthOfficial || role == RoleAdmin {
		return nil, fmt.Errorf("%w: role %q cannot be self-assigned", ErrInvalidInput, reg.Role)
	}

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("auth: check email: %w", err)
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Status:       StatusActive,
		RoleInfo:     RoleInfo{Role: role, Hierarchy: reg.Hierarchy},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

// SetUserStatus flips an account's status. Deletion and suspension both run
// through here; user rows are never physically removed.
func (s *Service) SetUserStatus(ctx context.Context, userID, status string) error {
	switch status {
	case StatusActive, StatusSuspended, StatusDeleted:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := s.users.SetUserStatus(ctx, userID, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("auth: set user status: %w", err)
	}
	return nil
}

func (s *Service) mintPair(user *User) (TokenPair, error) {
	access, err := s.codec.IssueAccess(user.ID, user.Role())
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: issue access token: %w", err)
	}
	refresh, err := s.codec.IssueRefresh(user.ID, user.Role())
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: issue refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Service) loadActiveUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: load user: %w", err)
	}
	if user.Status == StatusSuspended || user.Status == StatusDeleted {
		return nil, ErrAccountSuspended
	}
	return user, nil
}
