package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskpoints/domain"
	"github.com/fastygo/taskpoints/pkg/logger"
	"github.com/fastygo/taskpoints/repository"
)

const guestPassword = "temp_password"

// UseCase is the local user registry: a list of accounts and a single
// current-user pointer, both mirrored to the key-value store.
type UseCase struct {
	store      repository.KeyValueStore
	logger     *zap.Logger
	loginDelay time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	users   []domain.User
	current *domain.User
}

func New(store repository.KeyValueStore, loginDelay time.Duration, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &UseCase{
		store:      store,
		logger:     log,
		loginDelay: loginDelay,
		now:        time.Now,
	}
}

// Init loads the registry and the current user, repairing a missing id and
// an invalid theme on the current user.
func (uc *UseCase) Init(ctx context.Context) error {
	users, _, err := uc.readUsers(ctx)
	if err != nil {
		return err
	}

	var current *domain.User
	raw, ok, err := uc.store.Get(ctx, repository.KeyCurrentUser)
	if err != nil {
		return fmt.Errorf("read current user: %w", err)
	}
	if ok && raw != "" {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			logger.FromContext(ctx, uc.logger).Warn("discarding unreadable current user", zap.Error(err))
		} else {
			current = &u
		}
	}

	if current != nil && repair(current, uc.now()) {
		if err := uc.writeJSON(ctx, repository.KeyCurrentUser, current); err != nil {
			logger.FromContext(ctx, uc.logger).Warn("failed to persist repaired user", zap.Error(err))
		}
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.users = users
	uc.current = current
	return nil
}

func repair(u *domain.User, now time.Time) bool {
	changed := false
	if u.ID == "" {
		if u.Username == domain.GuestID {
			u.ID = domain.GuestID
		} else {
			u.ID = fmt.Sprintf("user_%d", now.UnixMilli())
		}
		changed = true
	}
	if u.Settings != nil && !u.Settings.Theme.IsValid() {
		u.Settings.Theme = domain.ThemeLight
		changed = true
	}
	return changed
}

// UseTemporaryUser logs in the shared guest account, replacing any previous
// guest entry in the registry.
func (uc *UseCase) UseTemporaryUser(ctx context.Context, nickname string) (*domain.User, error) {
	settings := domain.DefaultSettings()
	guest := domain.User{
		ID:       domain.GuestID,
		Username: domain.GuestID,
		Nickname: nickname,
		Password: guestPassword,
		Settings: &settings,
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	users := make([]domain.User, 0, len(uc.users)+1)
	for _, u := range uc.users {
		if u.ID != domain.GuestID {
			users = append(users, u)
		}
	}
	users = append(users, guest)

	if err := uc.writeJSON(ctx, repository.KeyUsers, users); err != nil {
		return nil, err
	}
	if err := uc.writeJSON(ctx, repository.KeyCurrentUser, guest); err != nil {
		return nil, err
	}
	uc.users = users
	uc.current = &guest
	return guest.Public(), nil
}

// Register adds an account. It does not log the new user in.
func (uc *UseCase) Register(ctx context.Context, username, nickname, password string) (*domain.User, error) {
	if password == "" {
		return nil, domain.ErrPasswordRequired
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	stored, found, err := uc.readUsers(ctx)
	if err != nil {
		return nil, err
	}
	if findByUsername(stored, username) >= 0 || findByUsername(uc.users, username) >= 0 {
		return nil, domain.ErrUsernameTaken
	}

	base := uc.users
	if found {
		base = stored
	}
	user := domain.User{
		ID:       "user_" + uuid.NewString(),
		Username: username,
		Nickname: nickname,
		Password: password,
	}
	users := append(append([]domain.User(nil), base...), user)
	if err := uc.writeJSON(ctx, repository.KeyUsers, users); err != nil {
		return nil, err
	}
	uc.users = users

	logger.FromContext(ctx, uc.logger).Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return user.Public(), nil
}

// Login checks the credentials against the stored registry after the
// configured delay and makes the account current.
func (uc *UseCase) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if password == "" {
		return nil, domain.ErrPasswordRequired
	}
	if uc.loginDelay > 0 {
		timer := time.NewTimer(uc.loginDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	users, found, err := uc.readUsers(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		users = uc.users
	}
	idx := findByUsername(users, strings.TrimSpace(username))
	if idx < 0 {
		return nil, domain.ErrUserNotFound
	}
	user := users[idx]
	if user.Password != password {
		return nil, domain.ErrWrongPassword
	}

	if err := uc.writeJSON(ctx, repository.KeyCurrentUser, user); err != nil {
		return nil, err
	}
	uc.users = users
	uc.current = &user

	logger.FromContext(ctx, uc.logger).Info("user logged in", zap.String("user_id", user.ID))
	return user.Public(), nil
}

// Logout clears the current user and the active conversation pointer.
func (uc *UseCase) Logout(ctx context.Context) error {
	uc.mu.Lock()
	uc.current = nil
	uc.mu.Unlock()

	return errors.Join(
		uc.store.Delete(ctx, repository.KeyCurrentUser),
		uc.store.Delete(ctx, repository.KeyCurrentConversationID),
	)
}

// SaveSettings replaces the current user's settings. Nil keeps the existing
// settings, or applies the defaults when there are none.
func (uc *UseCase) SaveSettings(ctx context.Context, settings *domain.Settings) (*domain.User, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.current == nil {
		return nil, domain.ErrNoActiveSession
	}
	updated := *uc.current
	switch {
	case settings != nil:
		if !settings.Theme.IsValid() {
			return nil, domain.ErrInvalidTheme
		}
		s := *settings
		updated.Settings = &s
	case updated.Settings == nil:
		s := domain.DefaultSettings()
		updated.Settings = &s
	}

	if err := uc.writeJSON(ctx, repository.KeyCurrentUser, updated); err != nil {
		return nil, err
	}
	users := append([]domain.User(nil), uc.users...)
	for i := range users {
		if users[i].ID == updated.ID {
			users[i] = updated
			if err := uc.writeJSON(ctx, repository.KeyUsers, users); err != nil {
				return nil, err
			}
			break
		}
	}
	uc.users = users
	uc.current = &updated
	return updated.Public(), nil
}

// Current returns the logged-in user without the password, or nil.
func (uc *UseCase) Current() *domain.User {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.current.Public()
}

func (uc *UseCase) LoggedIn() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.current != nil
}

// Users returns the registry without passwords.
func (uc *UseCase) Users() []domain.User {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	out := make([]domain.User, 0, len(uc.users))
	for i := range uc.users {
		out = append(out, *uc.users[i].Public())
	}
	return out
}

// FirstVisit reports whether the welcome flow has never been shown and marks
// it as shown.
func (uc *UseCase) FirstVisit(ctx context.Context) (bool, error) {
	_, ok, err := uc.store.Get(ctx, repository.KeyHasVisited)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	if err := uc.store.Set(ctx, repository.KeyHasVisited, "true"); err != nil {
		return false, err
	}
	return true, nil
}

func (uc *UseCase) readUsers(ctx context.Context) ([]domain.User, bool, error) {
	raw, ok, err := uc.store.Get(ctx, repository.KeyUsers)
	if err != nil {
		return nil, false, fmt.Errorf("read users: %w", err)
	}
	if !ok || raw == "" {
		return nil, false, nil
	}
	var users []domain.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, false, fmt.Errorf("decode users: %w", err)
	}
	return users, true, nil
}

func (uc *UseCase) writeJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := uc.store.Set(ctx, key, string(raw)); err != nil {
		return domain.ErrPersistFailed.With(err)
	}
	return nil
}

func findByUsername(users []domain.User, username string) int {
	for i := range users {
		if users[i].Username == username {
			return i
		}
	}
	return -1
}
