package authsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"bookrider/model"
	"bookrider/service/svcerr"
	"bookrider/util/hash"
)

type mockRepo struct {
	createFn  func(ctx context.Context, u *model.User) error
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		u.ID = 1
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, nil
	}
	return m.byEmailFn(ctx, email)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

func TestRegister_Success(t *testing.T) {
	m := &mockRepo{createFn: func(ctx context.Context, u *model.User) error {
		u.ID = 42
		return nil
	}}
	svc := New(m, "test-secret")

	u, tok, err := svc.Register(context.Background(), model.RegisterReq{
		FirstName: "Ola",
		LastName:  "Nowak",
		Email:     "USER@Example.COM",
		Username:  "ola",
		Password:  "supersecret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "user@example.com", u.Email)
	require.Equal(t, model.RoleUser, u.Role)
	require.NotEmpty(t, u.PasswordHash)
	require.NotEqual(t, "supersecret", u.PasswordHash)
}

func TestRegister_DriverRole(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	u, _, err := svc.Register(context.Background(), model.RegisterReq{
		FirstName: "Jan",
		LastName:  "Kowalski",
		Email:     "driver@example.com",
		Username:  "jan",
		Password:  "supersecret",
		Driver:    true,
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleDriver, u.Role)
}

func TestRegister_BadInput(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Email:    " ",
		Username: "u",
		Password: "123",
	})
	require.Equal(t, ErrBadInput, svcerr.CodeOf(err))
}

func TestRegister_EmailTaken(t *testing.T) {
	m := &mockRepo{createFn: func(ctx context.Context, u *model.User) error {
		return &pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "users_email_key",
		}
	}}
	svc := New(m, "test-secret")

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Email:    "taken@example.com",
		Username: "ola",
		Password: "123456",
	})
	require.Equal(t, ErrEmailTaken, svcerr.CodeOf(err))
}

func TestRegister_UsernameTaken(t *testing.T) {
	m := &mockRepo{createFn: func(ctx context.Context, u *model.User) error {
		return &pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "users_username_key",
		}
	}}
	svc := New(m, "test-secret")

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Email:    "new@example.com",
		Username: "taken",
		Password: "123456",
	})
	require.Equal(t, ErrUsernameTaken, svcerr.CodeOf(err))
}

func TestRegister_CreateError(t *testing.T) {
	m := &mockRepo{createFn: func(ctx context.Context, u *model.User) error {
		return errors.New("db down")
	}}
	svc := New(m, "test-secret")

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Email:    "ok@example.com",
		Username: "ok",
		Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, svcerr.Code(""), svcerr.CodeOf(err))
}

func TestLogin_Success(t *testing.T) {
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
		return &model.User{ID: 7, Email: email, PasswordHash: hashed, Role: model.RoleUser}, nil
	}}
	svc := New(m, "test-secret")

	u, tok, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "User@Example.com",
		Password: pw,
	})
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(7), u.ID)
}

func TestLogin_UserNotFound(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "missing@example.com",
		Password: "whatever",
	})
	require.Equal(t, ErrInvalidCreds, svcerr.CodeOf(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed := mustHash(t, "correct-password")
	m := &mockRepo{byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
		return &model.User{ID: 101, Email: email, PasswordHash: hashed}, nil
	}}
	svc := New(m, "test-secret")

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	require.Equal(t, ErrInvalidCreds, svcerr.CodeOf(err))
}

func TestLogin_BadInput(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, _, err := svc.Login(context.Background(), model.LoginReq{Email: " ", Password: ""})
	require.Equal(t, ErrBadInput, svcerr.CodeOf(err))
}
