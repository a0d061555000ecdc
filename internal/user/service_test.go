package user

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SultokTheF/uiren-mobile/internal/session"
)

type MockDoer struct{ mock.Mock }

func (m *MockDoer) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	args := m.Called(ctx, path, query, out)
	return args.Error(0)
}

func (m *MockDoer) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	args := m.Called(ctx, path, body, out)
	return args.Error(0)
}

func TestLoginStoresTokenPair(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	doer := new(MockDoer)

	doer.On("Post", ctx, loginPath, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(3).(*loginResponse)
			out.Access = "access-1"
			out.Refresh = "refresh-1"
		}).
		Return(nil)

	svc := NewService(doer, store)
	require.NoError(t, svc.Login(ctx, "user@uiren.kz", "secret123"))

	access, _ := store.AccessToken(ctx)
	refresh, _ := store.RefreshToken(ctx)
	assert.Equal(t, "access-1", access)
	assert.Equal(t, "refresh-1", refresh)
	doer.AssertExpectations(t)
}

func TestLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.SetTokens(ctx, "a", "r"))

	svc := NewService(new(MockDoer), store)
	require.NoError(t, svc.Logout(ctx))

	access, _ := store.AccessToken(ctx)
	refresh, _ := store.RefreshToken(ctx)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(new(MockDoer), session.NewMemoryStore())

	err := svc.Register(context.Background(), RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
	})
	require.Error(t, err)
}

func TestCurrent(t *testing.T) {
	ctx := context.Background()
	doer := new(MockDoer)

	doer.On("Get", ctx, profilePath, url.Values(nil), mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(3).(*User)
			require.NoError(t, json.Unmarshal([]byte(`{
				"id": 7, "email": "user@uiren.kz", "first_name": "Aru",
				"last_name": "S", "role": "USER", "is_active": true
			}`), out))
		}).
		Return(nil)

	svc := NewService(doer, session.NewMemoryStore())
	u, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, RoleUser, u.Role)
}
