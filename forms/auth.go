package forms

import (
	"context"
	"strings"

	"product-console/models"
)

// Authenticator exchanges credentials for a token
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) (models.AuthResponse, error)
}

// SessionSaver persists the token of a successful login
type SessionSaver interface {
	Establish(ctx context.Context, token string, expiresIn int) error
}

// LoginForm holds the login page fields
type LoginForm struct {
	Email    string
	Password string

	Error   string
	Loading bool
}

// Validate trims the email and requires both credentials
func (f *LoginForm) Validate() (models.LoginRequest, error) {
	email := strings.TrimSpace(f.Email)
	if email == "" || f.Password == "" {
		return models.LoginRequest{}, invalid(MsgCredentialsRequired)
	}
	return models.LoginRequest{Email: email, Password: f.Password}, nil
}

// Submit logs in and stores the session. The password is cleared either way.
func (f *LoginForm) Submit(ctx context.Context, auth Authenticator, sessions SessionSaver) error {
	req, err := f.Validate()
	if err != nil {
		f.Error = err.Error()
		return err
	}

	f.Loading = true
	resp, err := auth.Login(ctx, req)
	f.Loading = false
	f.Password = ""
	if err != nil {
		f.Error = MsgLoginFailed
		return err
	}
	if err := sessions.Establish(ctx, resp.Token, resp.ExpiresIn); err != nil {
		f.Error = MsgLoginFailed
		return err
	}
	f.Error = ""
	return nil
}

// SignupForm holds the signup page fields
type SignupForm struct {
	Name     string
	Email    string
	Password string

	Error   string
	Loading bool
}

// Validate requires a name, an email and a password
func (f *SignupForm) Validate() (models.SignupRequest, error) {
	name := strings.TrimSpace(f.Name)
	email := strings.TrimSpace(f.Email)
	if name == "" || email == "" || f.Password == "" {
		return models.SignupRequest{}, invalid(MsgAllFieldsRequired)
	}
	return models.SignupRequest{Name: name, Email: email, Password: f.Password}, nil
}

// Submit registers the user and stores the returned session
func (f *SignupForm) Submit(ctx context.Context, auth Authenticator, sessions SessionSaver) error {
	req, err := f.Validate()
	if err != nil {
		f.Error = err.Error()
		return err
	}

	f.Loading = true
	resp, err := auth.Signup(ctx, req)
	f.Loading = false
	f.Password = ""
	if err != nil {
		f.Error = MsgSignupFailed
		return err
	}
	if err := sessions.Establish(ctx, resp.Token, resp.ExpiresIn); err != nil {
		f.Error = MsgSignupFailed
		return err
	}
	f.Error = ""
	return nil
}
