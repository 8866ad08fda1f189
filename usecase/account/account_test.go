package account

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/repository"
	"github.com/fastygo/taskpoints/repository/memory"
)

type failingKV struct {
	*memory.KV
	failSet bool
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.KV.Set(ctx, key, value)
}

func newAccounts(t *testing.T) (*UseCase, *memory.KV) {
	t.Helper()
	kv := memory.NewKV()
	uc := New(kv, 0, nil)
	if err := uc.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return uc, kv
}

func storedUsers(t *testing.T, kv repository.KeyValueStore) []domain.User {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), repository.KeyUsers)
	if err != nil || !ok {
		t.Fatalf("users key missing: ok=%v err=%v", ok, err)
	}
	var users []domain.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	return users
}

func TestRegisterAndLogin(t *testing.T) {
	uc, kv := newAccounts(t)
	ctx := context.Background()

	user, err := uc.Register(ctx, "alice", "Alice", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Password != "" {
		t.Error("returned user must not carry the password")
	}
	if uc.LoggedIn() {
		t.Error("register must not log in")
	}
	if users := storedUsers(t, kv); len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("stored users = %+v", users)
	}

	if _, err := uc.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrWrongPassword) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := uc.Login(ctx, "bob", "secret"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("unknown user err = %v", err)
	}
	if _, err := uc.Login(ctx, "alice", ""); !errors.Is(err, domain.ErrPasswordRequired) {
		t.Errorf("empty password err = %v", err)
	}

	logged, err := uc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != user.ID || !uc.LoggedIn() {
		t.Errorf("current = %+v", uc.Current())
	}
	if _, ok, _ := kv.Get(ctx, repository.KeyCurrentUser); !ok {
		t.Error("current user not persisted")
	}
}

func TestRegisterRejectsDuplicatesAndEmptyFields(t *testing.T) {
	uc, kv := newAccounts(t)
	ctx := context.Background()

	if _, err := uc.Register(ctx, "alice", "", ""); !errors.Is(err, domain.ErrPasswordRequired) {
		t.Errorf("empty password err = %v", err)
	}
	if _, err := uc.Register(ctx, "  ", "", "pw"); !errors.Is(err, domain.ErrUsernameRequired) {
		t.Errorf("empty username err = %v", err)
	}
	if _, err := uc.Register(ctx, "alice", "", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := uc.Register(ctx, "alice", "again", "pw2"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("duplicate err = %v", err)
	}
	if users := storedUsers(t, kv); len(users) != 1 {
		t.Errorf("user list changed on duplicate: %+v", users)
	}
}

func TestRegisterSeesUsersWrittenElsewhere(t *testing.T) {
	uc, kv := newAccounts(t)
	ctx := context.Background()

	// Another instance registered "carol" after this one initialised.
	raw, _ := json.Marshal([]domain.User{{ID: "user_x", Username: "carol", Password: "pw"}})
	if err := kv.Set(ctx, repository.KeyUsers, string(raw)); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Register(ctx, "carol", "", "pw"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
	if _, err := uc.Login(ctx, "carol", "pw"); err != nil {
		t.Errorf("Login: %v", err)
	}
}

func TestRegisterPersistFailureLeavesRegistryUnchanged(t *testing.T) {
	kv := &failingKV{KV: memory.NewKV(), failSet: true}
	uc := New(kv, 0, nil)
	if _, err := uc.Register(context.Background(), "dave", "", "pw"); !errors.Is(err, domain.ErrPersistFailed) {
		t.Fatalf("err = %v, want ErrPersistFailed", err)
	}
	if len(uc.Users()) != 0 {
		t.Error("registry changed although persisting failed")
	}
}

func TestLoginHonoursContext(t *testing.T) {
	uc := New(memory.NewKV(), time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := uc.Login(ctx, "alice", "pw"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTemporaryUserAndLogout(t *testing.T) {
	uc, kv := newAccounts(t)
	ctx := context.Background()

	if _, err := uc.UseTemporaryUser(ctx, "first"); err != nil {
		t.Fatalf("UseTemporaryUser: %v", err)
	}
	guest, err := uc.UseTemporaryUser(ctx, "second")
	if err != nil {
		t.Fatalf("UseTemporaryUser: %v", err)
	}
	if !guest.IsGuest() || guest.Settings == nil || guest.Settings.Theme != domain.ThemeLight {
		t.Errorf("guest = %+v", guest)
	}
	if users := storedUsers(t, kv); len(users) != 1 || users[0].Nickname != "second" {
		t.Errorf("guest entries = %+v", users)
	}

	if err := kv.Set(ctx, repository.KeyCurrentConversationID, "7"); err != nil {
		t.Fatal(err)
	}
	if err := uc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if uc.LoggedIn() || uc.Current() != nil {
		t.Error("still logged in")
	}
	for _, key := range []string{repository.KeyCurrentUser, repository.KeyCurrentConversationID} {
		if _, ok, _ := kv.Get(ctx, key); ok {
			t.Errorf("%s not cleared", key)
		}
	}
}

func TestSaveSettings(t *testing.T) {
	uc, kv := newAccounts(t)
	ctx := context.Background()

	if _, err := uc.SaveSettings(ctx, nil); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}

	if _, err := uc.Register(ctx, "erin", "", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Login(ctx, "erin", "pw"); err != nil {
		t.Fatal(err)
	}

	user, err := uc.SaveSettings(ctx, nil)
	if err != nil {
		t.Fatalf("SaveSettings(nil): %v", err)
	}
	if *user.Settings != domain.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", user.Settings)
	}

	if _, err := uc.SaveSettings(ctx, &domain.Settings{Theme: "neon"}); !errors.Is(err, domain.ErrInvalidTheme) {
		t.Errorf("invalid theme err = %v", err)
	}

	user, err = uc.SaveSettings(ctx, &domain.Settings{Theme: domain.ThemeDark})
	if err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if user.Settings.Theme != domain.ThemeDark || user.Settings.Notifications {
		t.Errorf("settings = %+v", user.Settings)
	}
	if users := storedUsers(t, kv); users[0].Settings == nil || users[0].Settings.Theme != domain.ThemeDark {
		t.Errorf("registry entry not updated: %+v", users[0])
	}
}

func TestInitRepairsCurrentUser(t *testing.T) {
	kv := memory.NewKV()
	ctx := context.Background()
	raw, _ := json.Marshal(domain.User{Username: domain.GuestID, Settings: &domain.Settings{Theme: "sepia"}})
	if err := kv.Set(ctx, repository.KeyCurrentUser, string(raw)); err != nil {
		t.Fatal(err)
	}

	uc := New(kv, 0, nil)
	if err := uc.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	current := uc.Current()
	if current == nil {
		t.Fatal("expected a current user")
	}
	if current.ID != domain.GuestID {
		t.Errorf("id = %q, want %q", current.ID, domain.GuestID)
	}
	if current.Settings.Theme != domain.ThemeLight {
		t.Errorf("theme = %q, want light", current.Settings.Theme)
	}
}

func TestFirstVisit(t *testing.T) {
	uc, _ := newAccounts(t)
	ctx := context.Background()
	first, err := uc.FirstVisit(ctx)
	if err != nil || !first {
		t.Fatalf("first call = %v, %v", first, err)
	}
	if again, _ := uc.FirstVisit(ctx); again {
		t.Error("second call should report a returning visitor")
	}
}
