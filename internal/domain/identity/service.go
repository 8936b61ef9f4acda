package identity

import (
	"context"
	"strings"
	"time"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/auth"
	"github.com/ampara/clinic/internal/platform/events"
)

// Tokens issues and verifies session tokens.
type Tokens interface {
	Issue(id auth.Identity) (string, time.Time, error)
	Verify(token string) (*auth.Claims, error)
}

type Service struct {
	users  UserRepository
	hasher *auth.PasswordHasher
	tokens Tokens
	events events.Publisher
	now    func() time.Time
}

func NewService(users UserRepository, hasher *auth.PasswordHasher, tokens Tokens, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, events: pub, now: time.Now}
}

// -- Auth --

// Register creates an account from the public sign-up form. The role
// defaults to Secretary. Administrator may only be chosen while no account
// exists, which bootstraps the first admin.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	role := auth.RoleSecretary
	if req.Role != "" {
		if !auth.IsValidRole(req.Role) {
			return nil, apperr.Validationf("invalid role: %s", req.Role)
		}
		role = auth.Role(req.Role)
	}
	if role == auth.RoleAdministrator {
		n, err := s.users.Count(ctx)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, apperr.Forbidden("administrator accounts must be created by an administrator")
		}
	}

	u, err := s.newUser(ctx, req.Name, req.Email, req.Password, string(role), req.Phone, true)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Validation("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if !s.hasher.Check(u.PasswordHash, req.Password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if !u.Active {
		return nil, apperr.Unauthorized("user is inactive")
	}
	return s.session(u)
}

func (s *Service) VerifyToken(token string) (*TokenInfo, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, apperr.Validation("token is required")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	info := &TokenInfo{Valid: true, User: claims.Identity()}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Me returns the stored account of the caller.
func (s *Service) Me(ctx context.Context, userID string) (*UserResponse, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	return s.GetUser(ctx, userID)
}

func (s *Service) session(u *User) (*AuthResponse, error) {
	token, exp, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, apperr.Internal(err, "issue token")
	}
	return &AuthResponse{Token: token, ExpiresAt: exp, User: u.Response()}, nil
}

// -- Users --

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if req.Role == "" {
		return nil, apperr.Validation("role is required")
	}
	if !auth.IsValidRole(req.Role) {
		return nil, apperr.Validationf("invalid role: %s", req.Role)
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	u, err := s.newUser(ctx, req.Name, req.Email, req.Password, req.Role, req.Phone, active)
	if err != nil {
		return nil, err
	}
	resp := u.Response()
	return &resp, nil
}

// SeedAdmin creates an active Administrator unless the email is taken.
// It reports whether an account was created.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.newUser(ctx, name, email, password, string(auth.RoleAdministrator), "", true)
	if apperr.Is(err, apperr.KindConflict) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) newUser(ctx context.Context, name, email, password, role, phone string, active bool) (*User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperr.Validationf("password must have at least %d characters", auth.MinPasswordLength)
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}
	now := s.now()
	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        phone,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, events.New(events.UserCreated, u.ID, "", map[string]string{"role": u.Role}))
	return u, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return apperr.Conflictf("email already registered")
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := u.Response()
	return &resp, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.Response())
	}
	return out, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name, ok := req.Name.Get(); ok {
		if strings.TrimSpace(name) == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		u.Name = strings.TrimSpace(name)
	}
	if email, ok := req.Email.Get(); ok {
		email = normalizeEmail(email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, apperr.Validation("a valid email is required")
		}
		if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if role, ok := req.Role.Get(); ok {
		if !auth.IsValidRole(role) {
			return nil, apperr.Validationf("invalid role: %s", role)
		}
		u.Role = role
	}
	req.Phone.Apply(&u.Phone)
	req.Active.Apply(&u.Active)
	if pw, ok := req.Password.Get(); ok && pw != "" {
		if len(pw) < auth.MinPasswordLength {
			return nil, apperr.Validationf("password must have at least %d characters", auth.MinPasswordLength)
		}
		hash, err := s.hasher.Hash(pw)
		if err != nil {
			return nil, apperr.Internal(err, "hash password")
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	resp := u.Response()
	return &resp, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	ok, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("user not found")
	}
	return nil
}

// ChangePassword lets a user change their own password, or an
// Administrator change anyone's. The current password is always checked.
func (s *Service) ChangePassword(ctx context.Context, caller auth.Identity, id string, req ChangePasswordRequest) error {
	if caller.UserID != id && !hasFullAccess(caller.Role) {
		return apperr.Forbidden("you can only change your own password")
	}
	if req.CurrentPassword == "" {
		return apperr.Validation("current password is required")
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		return apperr.Validationf("new password must have at least %d characters", auth.MinPasswordLength)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Check(u.PasswordHash, req.CurrentPassword) {
		return apperr.Validation("current password is incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperr.Internal(err, "hash password")
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	return s.users.Update(ctx, u)
}

// hasFullAccess is true for roles holding every permission.
func hasFullAccess(role string) bool {
	return auth.HasAllPermissions(auth.ParseRole(role), auth.AllPermissions()...)
}

func (s *Service) Roles() []RoleInfo {
	roles := auth.AllRoles()
	out := make([]RoleInfo, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleInfo{
			Value:              string(r),
			Label:              r.Label(),
			Description:        r.Description(),
			HealthProfessional: auth.IsHealthProfessional(r),
			Permissions:        auth.GetRolePermissions(r),
		})
	}
	return out
}
