package session

import "slices"

// AdminRole is the role marker that gates access to the admin console
const AdminRole = "ADMIN"

// UserRecord is the persisted description of the signed-in user
type UserRecord struct {
	ID              int64    `json:"id"`
	DisplayName     string   `json:"displayName"`
	Email           string   `json:"email"`
	Roles           []string `json:"roles"`
	CreatedAt       string   `json:"createdAt,omitempty"`
	ModifiedAt      string   `json:"modifiedAt,omitempty"`
	LastLoginAt     string   `json:"lastLoginAt,omitempty"`
	ProfileImageURL string   `json:"profileImageUrl,omitempty"`
	TotalBooks      *int     `json:"totalBooks,omitempty"`
	BooksInProgress *int     `json:"booksInProgress,omitempty"`
	BooksCompleted  *int     `json:"booksCompleted,omitempty"`
	AverageRating   *float64 `json:"averageRating,omitempty"`
}

// HasRole reports whether the user carries the given role
func (u *UserRecord) HasRole(role string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, role)
}

// IsAdmin reports whether the user carries the admin marker
func (u *UserRecord) IsAdmin() bool {
	return u.HasRole(AdminRole)
}

func (u *UserRecord) clone() *UserRecord {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}

// Session is a point-in-time view of the authentication state.
//
// IsAuthenticated is true only when both User and AuthToken are present, and
// IsAdmin only when the session is authenticated and the user is an admin.
// The manager never commits a session that is authenticated but not admin.
type Session struct {
	User            *UserRecord
	AuthToken       string
	IsAuthenticated bool
	IsAdmin         bool
}

// Empty reports whether no user is signed in
func (s Session) Empty() bool {
	return !s.IsAuthenticated
}

func (s Session) clone() Session {
	s.User = s.User.clone()
	return s
}

func adminSession(user *UserRecord, token string) Session {
	return Session{
		User:            user,
		AuthToken:       token,
		IsAuthenticated: true,
		IsAdmin:         true,
	}
}

// Credentials are what the admin types at the login prompt
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginPayload is the body returned by the login endpoint
type LoginPayload struct {
	Token       string   `json:"token"`
	ExpiresIn   int64    `json:"expiresIn"`
	UserID      int64    `json:"userId"`
	DisplayName string   `json:"displayName"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
}

// User builds the record persisted after a successful login
func (p *LoginPayload) User() *UserRecord {
	return &UserRecord{
		ID:          p.UserID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Roles:       slices.Clone(p.Roles),
	}
}
