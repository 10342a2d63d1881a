// Package services contains server-side business logic. AuthService runs the
// hash-chain sign-up and sign-in flows against a credential store and issues
// access tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chainkeeper/internal/common"
	"github.com/dmitrijs2005/chainkeeper/internal/logging"
	"github.com/dmitrijs2005/chainkeeper/internal/ratchet"
	"github.com/dmitrijs2005/chainkeeper/internal/server/auth"
	"github.com/dmitrijs2005/chainkeeper/internal/server/config"
	"github.com/dmitrijs2005/chainkeeper/internal/server/models"
	"github.com/dmitrijs2005/chainkeeper/internal/server/repositories/users"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/chainkeeper/internal/server/services"

// SigninResult is returned on a successful sign-in.
type SigninResult struct {
	AccessToken string
	// Index is the index of the credential that is now the stored target.
	Index int
	// Rotated is set when the target was replaced by a fresh chain.
	Rotated bool
}

// Identity describes an authenticated user.
type Identity struct {
	UserID   string
	UserName string
	Index    int
	Since    time.Time
}

type AuthOption func(*AuthService)

// WithTracerProvider makes the service record spans on tp instead of the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) AuthOption {
	return func(s *AuthService) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// AuthService provides the credential flows:
//   - SignupData / Signup: bootstrap a new identity at the top of a chain
//   - AuthData / Signin: walk the chain one step down per sign-in
//   - Whoami: resolve an access token's user
type AuthService struct {
	users                       users.Repository
	manager                     *ratchet.Manager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	log                         logging.Logger
	tracer                      trace.Tracer
}

// NewAuthService constructs an AuthService using a store, a Manager and
// server config.
func NewAuthService(repo users.Repository, m *ratchet.Manager, cfg *config.Config, log logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:                       repo,
		manager:                     m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		log:                         log.With("module", "auth"),
		tracer:                      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignupData returns bootstrap parameters with a fresh salt.
func (s *AuthService) SignupData(ctx context.Context) (*ratchet.InitialData, error) {
	data, err := s.manager.InitialData()
	if err != nil {
		s.log.Error(ctx, "signup data", "error", err)
		return nil, common.ErrorInternal
	}
	return data, nil
}

// Signup registers userName with an initial credential at MaxIndex.
func (s *AuthService) Signup(ctx context.Context, userName, token string) (err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Signup", trace.WithAttributes(attribute.String("user", userName)))
	defer func() { endSpan(span, err) }()

	if userName == "" {
		return fmt.Errorf("%w: empty username", common.ErrorBadRequest)
	}

	// a malformed token must not reveal whether the name is taken
	if err := s.manager.ValidateInitial(token); err != nil {
		s.log.Info(ctx, "signup rejected", "user", userName, "reason", err)
		return fmt.Errorf("%w: %w", common.ErrorBadRequest, err)
	}

	exists, err := s.users.Exists(ctx, userName)
	if err != nil {
		s.log.Error(ctx, "signup lookup", "user", userName, "error", err)
		return common.ErrorInternal
	}
	if exists {
		return common.ErrorAlreadyExists
	}

	canonical, err := s.manager.Canonical(token)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorBadRequest, err)
	}

	if _, err := s.users.Create(ctx, &models.User{UserName: userName, Credential: canonical}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.ErrorAlreadyExists
		}
		s.log.Error(ctx, "signup store", "user", userName, "error", err)
		return common.ErrorInternal
	}

	s.log.Info(ctx, "signup accepted", "user", userName)
	return nil
}

// AuthData tells userName which index and salt to derive next. Unknown users
// get decoy data of the same shape.
func (s *AuthService) AuthData(ctx context.Context, userName string) (*ratchet.AuthData, error) {
	user, err := s.users.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.decoy(ctx, userName)
		}
		s.log.Error(ctx, "auth data lookup", "user", userName, "error", err)
		return nil, common.ErrorInternal
	}

	data, err := s.manager.AuthData(user.Credential)
	if err != nil {
		s.log.Error(ctx, "stored credential unusable", "user", userName, "error", err)
		return nil, common.ErrorInternal
	}
	return data, nil
}

func (s *AuthService) decoy(ctx context.Context, userName string) (*ratchet.AuthData, error) {
	data, err := s.manager.DecoyAuthData(s.jwtSecret, userName)
	if err != nil {
		s.log.Error(ctx, "decoy auth data", "error", err)
		return nil, common.ErrorInternal
	}
	return data, nil
}

// Signin validates token against the stored target and, on success, makes
// tokenUpdate (when given) or token the new target and issues an access
// token. Every credential rejection is reported as common.ErrorUnauthorized;
// the precise reason is only logged.
func (s *AuthService) Signin(ctx context.Context, userName, token, tokenUpdate string) (res *SigninResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Signin", trace.WithAttributes(
		attribute.String("user", userName),
		attribute.Bool("token_update", tokenUpdate != ""),
	))
	defer func() { endSpan(span, err) }()

	user, err := s.users.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "signin rejected", "user", userName, "reason", "unknown user")
			return nil, common.ErrorUnauthorized
		}
		s.log.Error(ctx, "signin lookup", "user", userName, "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.manager.Validate(ctx, token, user.Credential); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Info(ctx, "signin rejected", "user", userName, "reason", err)
		return nil, common.ErrorUnauthorized
	}

	replacement := token
	if tokenUpdate != "" {
		if err := s.manager.ValidateInitial(tokenUpdate); err != nil {
			s.log.Info(ctx, "signin rejected", "user", userName, "reason", fmt.Errorf("token update: %w", err))
			return nil, common.ErrorUnauthorized
		}
		replacement = tokenUpdate
	}

	next, err := s.manager.Parse(replacement)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	canonical, err := s.manager.Canonical(next)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	if err := s.users.SwapCredential(ctx, userName, user.Credential, canonical); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			s.log.Warn(ctx, "signin lost race", "user", userName)
			return nil, common.ErrVersionConflict
		}
		s.log.Error(ctx, "signin store", "user", userName, "error", err)
		return nil, common.ErrorInternal
	}

	access, err := auth.GenerateToken(user.ID, user.UserName, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		s.log.Error(ctx, "access token", "error", err)
		return nil, common.ErrorInternal
	}

	span.SetAttributes(attribute.Int("index", next.Index))
	s.log.Info(ctx, "signin accepted", "user", userName, "index", next.Index, "rotated", tokenUpdate != "")

	return &SigninResult{AccessToken: access, Index: next.Index, Rotated: tokenUpdate != ""}, nil
}

// Whoami resolves userName to its identity and current chain position.
func (s *AuthService) Whoami(ctx context.Context, userName string) (*Identity, error) {
	user, err := s.users.GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	cred, err := s.manager.Parse(user.Credential)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Identity{UserID: user.ID, UserName: user.UserName, Index: cred.Index, Since: user.UpdatedAt}, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
