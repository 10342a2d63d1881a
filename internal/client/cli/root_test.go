package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/chainkeeper/internal/client/client"
	"github.com/dmitrijs2005/chainkeeper/internal/client/config"
	"github.com/dmitrijs2005/chainkeeper/internal/client/services"
	"github.com/dmitrijs2005/chainkeeper/internal/credential"
	"github.com/dmitrijs2005/chainkeeper/internal/logging"
	pb "github.com/dmitrijs2005/chainkeeper/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	regUser, regPass     string
	loginUser, loginPass string

	regErr    error
	loginRes  *services.LoginResult
	loginErr  error
	who       *pb.WhoamiResponse
	whoErr    error
	pingErr   error
	loggedOut bool
	forgot    bool
	closed    bool
}

func (f *fakeAuth) Register(_ context.Context, username, password string) error {
	f.regUser, f.regPass = username, password
	return f.regErr
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*services.LoginResult, error) {
	f.loginUser, f.loginPass = username, password
	return f.loginRes, f.loginErr
}

func (f *fakeAuth) Whoami(context.Context) (*pb.WhoamiResponse, error) { return f.who, f.whoErr }
func (f *fakeAuth) Ping(context.Context) error                         { return f.pingErr }
func (f *fakeAuth) Close(context.Context) error                        { return nil }

func (f *fakeAuth) Logout(_ context.Context, forget bool) error {
	f.loggedOut, f.forgot = true, forget
	return nil
}

func stubAuth(t *testing.T, fa *fakeAuth, openErr error) {
	t.Helper()
	old := openAuth
	openAuth = func(_ context.Context, _ *config.Config, _ logging.Logger) (services.AuthService, func() error, error) {
		if openErr != nil {
			return nil, nil, openErr
		}
		return fa, func() error { fa.closed = true; return nil }, nil
	}
	t.Cleanup(func() { openAuth = old })
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	root := NewRootCommand(cfg)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestSignup(t *testing.T) {
	stubTerminal(t, false, "", nil)
	fa := &fakeAuth{}
	stubAuth(t, fa, nil)

	out, err := run(t, "pw\npw\n", "signup", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered alice")
	assert.Equal(t, "alice", fa.regUser)
	assert.Equal(t, "pw", fa.regPass)
	assert.True(t, fa.closed)
}

func TestSignup_PasswordMismatch(t *testing.T) {
	stubTerminal(t, false, "", nil)
	fa := &fakeAuth{}
	stubAuth(t, fa, nil)

	_, err := run(t, "pw\nwp\n", "signup", "alice")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Empty(t, fa.regUser)
}

func TestSignup_ServerError(t *testing.T) {
	stubTerminal(t, false, "", nil)
	stubAuth(t, &fakeAuth{regErr: client.ErrAlreadyExists}, nil)

	_, err := run(t, "pw\npw\n", "signup", "alice")
	assert.ErrorIs(t, err, client.ErrAlreadyExists)
}

func TestSignin_PromptsForUsername(t *testing.T) {
	stubTerminal(t, false, "", nil)
	fa := &fakeAuth{loginRes: &services.LoginResult{Index: 41, Rotated: true}}
	stubAuth(t, fa, nil)

	out, err := run(t, "bob\npw\n", "signin")
	require.NoError(t, err)
	assert.Equal(t, "bob", fa.loginUser)
	assert.Equal(t, "pw", fa.loginPass)
	assert.Contains(t, out, "Signed in as bob (index 41)")
	assert.Contains(t, out, "Salt rotated")
}

func TestSignin_Rollback(t *testing.T) {
	stubTerminal(t, false, "", nil)
	stubAuth(t, &fakeAuth{loginErr: services.ErrServerRollback}, nil)

	_, err := run(t, "pw\n", "signin", "bob")
	assert.ErrorIs(t, err, services.ErrServerRollback)
}

func TestSignin_EmptyUsername(t *testing.T) {
	stubTerminal(t, false, "", nil)
	stubAuth(t, &fakeAuth{}, nil)

	_, err := run(t, "\n", "signin")
	assert.ErrorContains(t, err, "username is required")
}

func TestWhoami(t *testing.T) {
	stubAuth(t, &fakeAuth{who: &pb.WhoamiResponse{UserID: "u-1", Username: "alice", Index: 7, Since: "2026-01-02T03:04:05Z"}}, nil)

	out, err := run(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "user:  alice\nid:    u-1\nindex: 7\nsince: 2026-01-02T03:04:05Z\n", out)
}

func TestWhoami_NoSession(t *testing.T) {
	stubAuth(t, &fakeAuth{whoErr: services.ErrNoSession}, nil)

	_, err := run(t, "", "whoami")
	assert.ErrorIs(t, err, services.ErrNoSession)
}

func TestSignoutAndPing(t *testing.T) {
	fa := &fakeAuth{}
	stubAuth(t, fa, nil)

	out, err := run(t, "", "signout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", out)
	assert.True(t, fa.loggedOut)
	assert.False(t, fa.forgot)

	_, err = run(t, "", "signout", "--forget")
	require.NoError(t, err)
	assert.True(t, fa.forgot)

	out, err = run(t, "", "ping")
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)

	fa.pingErr = client.ErrUnavailable
	_, err = run(t, "", "ping")
	assert.ErrorIs(t, err, client.ErrUnavailable)
}

func TestOpenAuthError(t *testing.T) {
	boom := errors.New("no database")
	stubAuth(t, nil, boom)

	_, err := run(t, "", "ping")
	assert.ErrorIs(t, err, boom)
}

func TestBadLogLevel(t *testing.T) {
	stubAuth(t, &fakeAuth{}, nil)

	_, err := run(t, "", "ping", "--log-level", "loud")
	assert.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "", "frobnicate")
	assert.Error(t, err)
}

func TestSalt(t *testing.T) {
	out, err := run(t, "", "salt", "--size", "16", "--encoding", "hex")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 32)

	_, err = run(t, "", "salt", "--encoding", "base32")
	assert.ErrorIs(t, err, credential.ErrUnsupportedEncoding)
}

func TestGenerateParseValidate(t *testing.T) {
	stubTerminal(t, false, "", nil)

	salt, err := run(t, "", "salt")
	require.NoError(t, err)
	salt = strings.TrimSpace(salt)

	target, err := run(t, "pw\n", "generate", "--index", "50000", "--salt", salt)
	require.NoError(t, err)
	target = strings.TrimSpace(target)
	assert.Equal(t, 2, strings.Count(target, "."))

	input, err := run(t, "pw\n", "generate", "--index", "49999", "--salt", salt, "--json")
	require.NoError(t, err)
	input = strings.TrimSpace(input)
	assert.True(t, strings.HasPrefix(input, `{"algorithm":"sha256"`), input)

	out, err := run(t, "", "parse", target)
	require.NoError(t, err)
	assert.Contains(t, out, "algorithm: sha256\n")
	assert.Contains(t, out, "index:     50000\n")
	assert.Contains(t, out, "salt:      "+salt+"\n")

	asToken, err := run(t, "", "parse", "--token", input)
	require.NoError(t, err)
	asJSON, err := run(t, "", "parse", "--json", strings.TrimSpace(asToken))
	require.NoError(t, err)
	assert.Equal(t, input, strings.TrimSpace(asJSON))

	out, err = run(t, "", "validate", input, target)
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	_, err = run(t, "", "validate", target, input)
	assert.ErrorIs(t, err, credential.ErrInsufficientDecrement)

	_, err = run(t, "", "validate", "--min-decrement", "10", input, target)
	assert.ErrorIs(t, err, credential.ErrInsufficientDecrement)

	wrong, err := run(t, "other\n", "generate", "--index", "49999", "--salt", salt)
	require.NoError(t, err)
	_, err = run(t, "", "validate", strings.TrimSpace(wrong), target)
	assert.ErrorIs(t, err, credential.ErrHashMismatch)
}

func TestGenerate_FreshSaltAndLimits(t *testing.T) {
	stubTerminal(t, false, "", nil)

	out, err := run(t, "pw\n", "generate", "--index", "20001")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))

	_, err = run(t, "pw\n", "generate", "--index", "2000000")
	assert.Error(t, err)
}

func TestParse_Malformed(t *testing.T) {
	_, err := run(t, "", "parse", "not-a-token")
	assert.ErrorIs(t, err, credential.ErrMalformedToken)

	_, err = run(t, "", "parse", "--json", "--token", "x")
	assert.Error(t, err)
}
