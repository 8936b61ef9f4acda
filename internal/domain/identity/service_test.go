package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/auth"
	"github.com/ampara/clinic/internal/platform/events"
	"github.com/ampara/clinic/pkg/optional"
)

// -- Mock User Repository --

type mockUserRepo struct {
	users map[string]*User
	order []string
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if u.ID == "" {
		m.seq++
		u.ID = fmt.Sprintf("user-%d", m.seq)
	}
	cp := *u
	m.users[u.ID] = &cp
	m.order = append(m.order, u.ID)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user not found")
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, id := range m.order {
		if u, ok := m.users[id]; ok && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFoundf("user not found")
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return apperr.NotFoundf("user not found")
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]*User, error) {
	var out []*User
	for _, id := range m.order {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var testSecret = []byte("identity-test-secret-identity-test")

func newTestService() *Service {
	svc, _ := newTestServiceWithEvents()
	return svc
}

func newTestServiceWithEvents() (*Service, *recordingPublisher) {
	tokens, _ := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:     testSecret,
		Issuer:     "clinic-api",
		Audience:   "clinic-clients",
		Expiration: time.Hour,
	})
	pub := &recordingPublisher{}
	return NewService(newMockUserRepo(), auth.NewPasswordHasher(bcrypt.MinCost), tokens, pub), pub
}

func mustCreate(t *testing.T, svc *Service, name, email, role string) *UserResponse {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Name: name, Email: email, Password: "secret123", Role: role,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// -- Register / Login --

func TestService_Register_DefaultsToSecretary(t *testing.T) {
	svc, pub := newTestServiceWithEvents()
	mustCreate(t, svc, "Admin", "admin@clinic.org", "Administrator")

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Rita", Email: "  Rita@Clinic.org ", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Role != "Secretary" || resp.User.RoleLabel != "Secretária" {
		t.Errorf("expected Secretary, got %s / %s", resp.User.Role, resp.User.RoleLabel)
	}
	if resp.User.Email != "rita@clinic.org" {
		t.Errorf("email not normalized: %q", resp.User.Email)
	}
	if resp.Token == "" || resp.ExpiresAt.IsZero() {
		t.Error("expected token and expiry")
	}
	if len(resp.User.Permissions) != 5 {
		t.Errorf("expected 5 secretary permissions, got %d", len(resp.User.Permissions))
	}
	if len(pub.events) != 2 || pub.events[1].Type != events.UserCreated {
		t.Errorf("expected user.created events, got %+v", pub.events)
	}
}

func TestService_Register_AdminBootstrap(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterRequest{Name: "Root", Email: "root@clinic.org", Password: "secret123", Role: "Administrator"})
	if err != nil {
		t.Fatalf("first admin should be allowed: %v", err)
	}
	if first.User.Role != "Administrator" {
		t.Errorf("expected Administrator, got %s", first.User.Role)
	}

	_, err = svc.Register(ctx, RegisterRequest{Name: "Eve", Email: "eve@clinic.org", Password: "secret123", Role: "Administrator"})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden for second admin, got %v", err)
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
		want apperr.Kind
	}{
		{"missing name", RegisterRequest{Email: "a@b.c", Password: "secret123"}, apperr.KindValidation},
		{"bad email", RegisterRequest{Name: "A", Email: "nope", Password: "secret123"}, apperr.KindValidation},
		{"short password", RegisterRequest{Name: "A", Email: "a@b.c", Password: "12345"}, apperr.KindValidation},
		{"invalid role", RegisterRequest{Name: "A", Email: "a@b.c", Password: "secret123", Role: "Doctor"}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			if apperr.KindOf(err) != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_Register_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	mustCreate(t, svc, "Ana", "ana@clinic.org", "Nutritionist")

	_, err := svc.Register(ctx, RegisterRequest{Name: "Ana 2", Email: "ANA@clinic.org", Password: "secret123"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	mustCreate(t, svc, "Ana", "ana@clinic.org", "Nutritionist")

	resp, err := svc.Login(ctx, LoginRequest{Email: "ANA@clinic.org", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := svc.tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Role != "Nutritionist" || claims.Email != "ana@clinic.org" {
		t.Errorf("unexpected claims %+v", claims)
	}

	for _, req := range []LoginRequest{
		{Email: "ana@clinic.org", Password: "wrong-password"},
		{Email: "nobody@clinic.org", Password: "secret123"},
	} {
		if _, err := svc.Login(ctx, req); apperr.KindOf(err) != apperr.KindUnauthorized {
			t.Errorf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestService_Login_InactiveUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	inactive := false
	_, err := svc.CreateUser(ctx, CreateUserRequest{Name: "Old", Email: "old@clinic.org", Password: "secret123", Role: "Secretary", Active: &inactive})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "old@clinic.org", Password: "secret123"})
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestService_VerifyToken(t *testing.T) {
	svc := newTestService()
	mustCreate(t, svc, "Ana", "ana@clinic.org", "Psychologist")
	resp, _ := svc.Login(context.Background(), LoginRequest{Email: "ana@clinic.org", Password: "secret123"})

	info, err := svc.VerifyToken("Bearer " + resp.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if !info.Valid || info.User.Role != "Psychologist" || info.ExpiresAt.IsZero() {
		t.Errorf("unexpected info %+v", info)
	}

	if _, err := svc.VerifyToken("garbage"); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("expected unauthorized, got %v", err)
	}
	if _, err := svc.VerifyToken(""); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation, got %v", err)
	}
}

// -- Users --

func TestService_CreateUser_RequiresValidRole(t *testing.T) {
	svc := newTestService()
	for _, role := range []string{"", "admin", "Doctor"} {
		_, err := svc.CreateUser(context.Background(), CreateUserRequest{Name: "X", Email: "x@clinic.org", Password: "secret123", Role: role})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("role %q: expected validation, got %v", role, err)
		}
	}
}

func TestService_UpdateUser_Patch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	u := mustCreate(t, svc, "Ana", "ana@clinic.org", "Nutritionist")
	svc.users.(*mockUserRepo).users[u.ID].Phone = "34 9999-0000"

	updated, err := svc.UpdateUser(ctx, u.ID, UpdateUserRequest{Role: optional.Of("Physiotherapist")})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Role != "Physiotherapist" || updated.Name != "Ana" || updated.Phone != "34 9999-0000" {
		t.Errorf("absent fields must be untouched: %+v", updated)
	}

	updated, err = svc.UpdateUser(ctx, u.ID, UpdateUserRequest{Phone: optional.Of("")})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Phone != "" {
		t.Errorf("provided empty phone should overwrite, got %q", updated.Phone)
	}

	if _, err := svc.UpdateUser(ctx, u.ID, UpdateUserRequest{Name: optional.Of(" ")}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("empty name should be rejected, got %v", err)
	}
	if _, err := svc.UpdateUser(ctx, u.ID, UpdateUserRequest{Role: optional.Of("Boss")}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("invalid role should be rejected, got %v", err)
	}
}

func TestService_UpdateUser_EmailUniqueness(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	ana := mustCreate(t, svc, "Ana", "ana@clinic.org", "Nutritionist")
	mustCreate(t, svc, "Bia", "bia@clinic.org", "Secretary")

	if _, err := svc.UpdateUser(ctx, ana.ID, UpdateUserRequest{Email: optional.Of("BIA@clinic.org")}); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("expected conflict, got %v", err)
	}
	if _, err := svc.UpdateUser(ctx, ana.ID, UpdateUserRequest{Email: optional.Of("ANA@clinic.org")}); err != nil {
		t.Errorf("keeping own email must be allowed: %v", err)
	}
}

func TestService_UpdateUser_NotFound(t *testing.T) {
	svc := newTestService()
	if _, err := svc.UpdateUser(context.Background(), "missing", UpdateUserRequest{}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_DeleteUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	u := mustCreate(t, svc, "Ana", "ana@clinic.org", "Nutritionist")

	if err := svc.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := svc.DeleteUser(ctx, u.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	ana := mustCreate(t, svc, "Ana", "ana@clinic.org", "Nutritionist")
	bia := mustCreate(t, svc, "Bia", "bia@clinic.org", "Secretary")
	self := auth.Identity{UserID: ana.ID, Role: "Nutritionist"}
	admin := auth.Identity{UserID: "root", Role: "Administrator"}

	tests := []struct {
		name   string
		caller auth.Identity
		id     string
		req    ChangePasswordRequest
		want   apperr.Kind
		ok     bool
	}{
		{"other user", self, bia.ID, ChangePasswordRequest{"secret123", "newsecret"}, apperr.KindForbidden, false},
		{"wrong current", self, ana.ID, ChangePasswordRequest{"nope-nope", "newsecret"}, apperr.KindValidation, false},
		{"too short", self, ana.ID, ChangePasswordRequest{"secret123", "12345"}, apperr.KindValidation, false},
		{"missing user", admin, "ghost", ChangePasswordRequest{"secret123", "newsecret"}, apperr.KindNotFound, false},
		{"self", self, ana.ID, ChangePasswordRequest{"secret123", "newsecret"}, 0, true},
		{"admin for other", admin, bia.ID, ChangePasswordRequest{"secret123", "another1"}, 0, true},
		{"social worker for other", auth.Identity{UserID: "sw", Role: "SocialWorker"}, bia.ID, ChangePasswordRequest{"secret123", "another2"}, apperr.KindForbidden, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ChangePassword(ctx, tt.caller, tt.id, tt.req)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if apperr.KindOf(err) != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := svc.Login(ctx, LoginRequest{Email: "ana@clinic.org", Password: "newsecret"}); err != nil {
		t.Errorf("new password should log in: %v", err)
	}
}

func TestService_SeedAdmin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.SeedAdmin(ctx, "Root", "root@clinic.org", "secret123")
	if err != nil || !created {
		t.Fatalf("expected admin created, got %v %v", created, err)
	}
	created, err = svc.SeedAdmin(ctx, "Root", "ROOT@clinic.org", "secret123")
	if err != nil || created {
		t.Errorf("second seed should be a no-op, got %v %v", created, err)
	}
}

func TestService_Roles(t *testing.T) {
	roles := newTestService().Roles()
	if len(roles) != 6 {
		t.Fatalf("expected 6 roles, got %d", len(roles))
	}
	professionals := 0
	for _, r := range roles {
		if r.Label == "" || r.Description == "" || len(r.Permissions) == 0 {
			t.Errorf("incomplete role info %+v", r)
		}
		if r.HealthProfessional {
			professionals++
		}
		if r.Value == string(auth.RoleSecretary) && r.HealthProfessional {
			t.Error("secretary is not a health professional")
		}
	}
	if professionals != 3 {
		t.Errorf("expected 3 health professional roles, got %d", professionals)
	}
}
