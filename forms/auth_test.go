package forms

import (
	"context"
	"errors"
	"testing"

	"product-console/apitest"
	"product-console/client"
	"product-console/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noToken struct{}

func (noToken) Token(context.Context) (string, error) { return "", nil }

type fakeSaver struct {
	token     string
	expiresIn int
	err       error
}

func (f *fakeSaver) Establish(ctx context.Context, token string, expiresIn int) error {
	if f.err != nil {
		return f.err
	}
	f.token = token
	f.expiresIn = expiresIn
	return nil
}

func newAuthBackend(t *testing.T) (*apitest.Server, *client.Client) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL, noToken{})
	require.NoError(t, err)
	return srv, c
}

func TestLoginFormRequiresCredentials(t *testing.T) {
	srv, c := newAuthBackend(t)
	f := &LoginForm{Email: "a@example.com"}

	err := f.Submit(context.Background(), c, &fakeSaver{})
	assert.True(t, IsValidation(err))
	assert.Equal(t, MsgCredentialsRequired, f.Error)
	assert.Empty(t, srv.Requests())
}

func TestLoginFormSavesSession(t *testing.T) {
	srv, c := newAuthBackend(t)
	srv.AddUser("Ada", "a@example.com", "secret")
	saver := &fakeSaver{}
	f := &LoginForm{Email: " a@example.com ", Password: "secret"}

	require.NoError(t, f.Submit(context.Background(), c, saver))
	assert.NotEmpty(t, saver.token)
	assert.Equal(t, 3600, saver.expiresIn)
	assert.Empty(t, f.Password)
	assert.Empty(t, f.Error)
}

func TestLoginFormBadCredentials(t *testing.T) {
	srv, c := newAuthBackend(t)
	srv.AddUser("Ada", "a@example.com", "secret")
	saver := &fakeSaver{}
	f := &LoginForm{Email: "a@example.com", Password: "wrong"}

	err := f.Submit(context.Background(), c, saver)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, MsgLoginFailed, f.Error)
	assert.Empty(t, saver.token)
	assert.Empty(t, f.Password)
}

func TestLoginFormSaveFailure(t *testing.T) {
	srv, c := newAuthBackend(t)
	srv.AddUser("Ada", "a@example.com", "secret")
	f := &LoginForm{Email: "a@example.com", Password: "secret"}

	err := f.Submit(context.Background(), c, &fakeSaver{err: errors.New("disk full")})
	assert.Error(t, err)
	assert.Equal(t, MsgLoginFailed, f.Error)
}

func TestSignupForm(t *testing.T) {
	srv, c := newAuthBackend(t)
	saver := &fakeSaver{}

	f := &SignupForm{Email: "b@example.com", Password: "pw"}
	err := f.Submit(context.Background(), c, saver)
	assert.Equal(t, MsgAllFieldsRequired, f.Error)
	assert.True(t, IsValidation(err))
	assert.Empty(t, srv.Requests())

	f.Name = "Bob"
	f.Password = "pw"
	require.NoError(t, f.Submit(context.Background(), c, saver))
	assert.NotEmpty(t, saver.token)

	// the same email again is rejected by the backend
	again := &SignupForm{Name: "Bob", Email: "b@example.com", Password: "pw"}
	assert.Error(t, again.Submit(context.Background(), c, saver))
	assert.Equal(t, MsgSignupFailed, again.Error)
}

func TestSignupRequestShape(t *testing.T) {
	f := &SignupForm{Name: " Bob ", Email: "b@example.com", Password: " pw "}
	req, err := f.Validate()
	require.NoError(t, err)
	assert.Equal(t, models.SignupRequest{Name: "Bob", Email: "b@example.com", Password: " pw "}, req)
}
