package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scoreboardv1 "github.com/mcdev12/scoreboard/go/internal/api/scoreboardv1"
)

func newAuthClient(t *testing.T, f *fixture) scoreboardv1.AuthServiceClient {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(scoreboardv1.NewAuthServiceHandler(NewService(f.app),
		connect.WithInterceptors(NewInterceptor(f.app))))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return scoreboardv1.NewAuthServiceClient(srv.Client(), srv.URL)
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func TestService_SessionLifecycle(t *testing.T) {
	f := newFixture(t)
	client := newAuthClient(t, f)
	ctx := context.Background()

	login, err := client.Login(ctx, connect.NewRequest(&scoreboardv1.LoginRequest{Email: testEmail, Password: testPassword}))
	require.NoError(t, err)
	token := login.Msg.Token
	assert.Equal(t, f.user.ID.String(), login.Msg.User.ID)

	who, err := client.WhoAmI(ctx, withToken(&scoreboardv1.WhoAmIRequest{}, token))
	require.NoError(t, err)
	assert.Equal(t, testEmail, who.Msg.User.Email)

	_, err = client.UpdatePassword(ctx, withToken(&scoreboardv1.UpdatePasswordRequest{Password: "x"}, token))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	_, err = client.UpdatePassword(ctx, withToken(&scoreboardv1.UpdatePasswordRequest{Password: "rotated-pw"}, token))
	require.NoError(t, err)

	_, err = client.Logout(ctx, withToken(&scoreboardv1.LogoutRequest{}, token))
	require.NoError(t, err)

	_, err = client.WhoAmI(ctx, withToken(&scoreboardv1.WhoAmIRequest{}, token))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = client.Login(ctx, connect.NewRequest(&scoreboardv1.LoginRequest{Email: testEmail, Password: "rotated-pw"}))
	assert.NoError(t, err)
}

func TestService_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	client := newAuthClient(t, f)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		code connect.Code
	}{
		{"no token", func() error {
			_, err := client.WhoAmI(ctx, connect.NewRequest(&scoreboardv1.WhoAmIRequest{}))
			return err
		}, connect.CodeUnauthenticated},
		{"bogus token", func() error {
			_, err := client.Logout(ctx, withToken(&scoreboardv1.LogoutRequest{}, "bogus"))
			return err
		}, connect.CodeUnauthenticated},
		{"wrong password", func() error {
			_, err := client.Login(ctx, connect.NewRequest(&scoreboardv1.LoginRequest{Email: testEmail, Password: "nope-nope"}))
			return err
		}, connect.CodeUnauthenticated},
		{"bad email", func() error {
			_, err := client.Login(ctx, connect.NewRequest(&scoreboardv1.LoginRequest{Email: "ref", Password: testPassword}))
			return err
		}, connect.CodeInvalidArgument},
		{"login with stale token", func() error {
			req := withToken(&scoreboardv1.LoginRequest{Email: testEmail, Password: testPassword}, "bogus")
			_, err := client.Login(ctx, req)
			return err
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if tt.code == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		token, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}
