package models

// Role represents a user role as returned by the upstream profile endpoint
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User represents the authenticated user's profile. Fetched once at startup
// by the session initializer; read-only within the gateway.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     *Role  `json:"role,omitempty"`
}

// TokenPair is the access/refresh token pair issued by the upstream auth service
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
