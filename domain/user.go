package domain

// Theme is the UI colour scheme stored in user settings.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// GuestID is both the id and the username of the temporary guest account.
const GuestID = "temp_user"

// Settings holds per-user preferences.
type Settings struct {
	Theme         Theme `json:"theme"`
	Notifications bool  `json:"notifications"`
}

// DefaultSettings returns the settings applied when a user has none.
func DefaultSettings() Settings {
	return Settings{Theme: ThemeLight, Notifications: true}
}

// User represents an account in the local registry. Passwords are stored
// and compared in plaintext.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Nickname string    `json:"nickname"`
	Password string    `json:"password"`
	Settings *Settings `json:"settings,omitempty"`
}

func (u *User) IsGuest() bool {
	return u != nil && u.ID == GuestID
}

// Public returns a copy of the user without the password.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Password = ""
	if u.Settings != nil {
		s := *u.Settings
		cp.Settings = &s
	}
	return &cp
}
