package models

// LoginRequest for the /api/user/login API
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest for the /api/user/signup API
// Password is sent in plaintext over the wire; hashing is the backend's job
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and signup
// ExpiresIn is optional (seconds); zero means the backend did not say
type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

// Note: the token is opaque to the client. It is persisted by the session package and
// attached as a bearer credential by the client package.
