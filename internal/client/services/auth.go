// Package services contains application services for the chainkeeper CLI.
// This file defines the authentication service: sign-up, sign-in along the
// hash chain with local rollback detection, and session housekeeping.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chainkeeper/internal/client/client"
	"github.com/dmitrijs2005/chainkeeper/internal/client/config"
	"github.com/dmitrijs2005/chainkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/chainkeeper/internal/common"
	"github.com/dmitrijs2005/chainkeeper/internal/credential"
	"github.com/dmitrijs2005/chainkeeper/internal/dbx"
	"github.com/dmitrijs2005/chainkeeper/internal/logging"
	pb "github.com/dmitrijs2005/chainkeeper/internal/proto"
	"github.com/dmitrijs2005/chainkeeper/internal/ratchet"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create an identity at the top of a fresh chain.
//   - Login: authenticate with the next credential down the chain and keep
//     the session locally.
//   - Whoami: describe the current session's identity.
//   - Logout: forget the local session, and with forget also the chain
//     watermarks kept for its user.
//   - Ping: check server liveness.
//   - Close: release underlying client resources.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Whoami(ctx context.Context) (*pb.WhoamiResponse, error)
	Logout(ctx context.Context, forget bool) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// LoginResult describes an accepted sign-in.
type LoginResult struct {
	// Index is the credential index the server now holds as target.
	Index   int
	Rotated bool
}

type authService struct {
	client    client.Client
	db        *sql.DB
	algorithm string
	encoding  string
	log       logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// local database. Chain algorithm and encoding come from cfg.
func NewAuthService(c client.Client, db *sql.DB, cfg *config.Config, log logging.Logger) AuthService {
	return &authService{
		client:    c,
		db:        db,
		algorithm: cfg.Algorithm,
		encoding:  cfg.Encoding,
		log:       log.With("module", "auth"),
	}
}

// manager builds a ratchet.Manager matching the server's chain parameters.
// The salt size is taken from salt itself.
func (a *authService) manager(minIndex, maxIndex, updateIndex, minDecrement int, salt string) (*ratchet.Manager, error) {
	enc, err := credential.ParseEncoding(a.encoding)
	if err != nil {
		return nil, err
	}

	raw, err := enc.Decode(salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", credential.ErrMalformedSalt, err)
	}

	return ratchet.New(ratchet.Config{
		Algorithm:    a.algorithm,
		Encoding:     a.encoding,
		MinIndex:     minIndex,
		MaxIndex:     maxIndex,
		UpdateIndex:  updateIndex,
		SaltSize:     len(raw),
		MinDecrement: minDecrement,
	})
}

// Register fetches bootstrap parameters, derives the credential at the top of
// the chain and submits it. The disclosure is recorded before sending.
func (a *authService) Register(ctx context.Context, username, password string) error {
	data, err := a.client.SignupData(ctx)
	if err != nil {
		return fmt.Errorf("signup data: %w", err)
	}

	m, err := a.manager(data.MinIndex, data.MaxIndex, data.UpdateIndex, data.MinDecrement, data.Salt)
	if err != nil {
		return err
	}

	token, err := m.Generate(ctx, ratchet.GenerateRequest{Password: password, Index: data.MaxIndex, Salt: data.Salt})
	if err != nil {
		return err
	}

	repos := client.NewRepositories(a.db)
	if err := repos.Disclosures.RecordDisclosed(ctx, username, data.Salt, data.MaxIndex); err != nil {
		return err
	}

	if err := a.client.Signup(ctx, username, token); err != nil {
		return err
	}

	if err := repos.Disclosures.RecordAccepted(ctx, username, data.Salt, data.MaxIndex); err != nil {
		return err
	}

	a.log.Info(ctx, "registered", "user", username, "index", data.MaxIndex)
	return nil
}

// nextIndex picks the index to disclose: below the server's target and below
// anything this client already sent on the chain. A server target above an
// index it once accepted is a rollback.
func (a *authService) nextIndex(ctx context.Context, username string, data *pb.AuthDataResponse) (int, error) {
	next := data.Index - data.MinDecrement

	w, err := client.NewRepositories(a.db).Disclosures.Get(ctx, username, data.Salt)
	switch {
	case errors.Is(err, common.ErrorNotFound):
	case err != nil:
		return 0, err
	default:
		if w.Accepted != 0 && data.Index > w.Accepted {
			a.log.Warn(ctx, "server asks for an index above an accepted one",
				"user", username, "asked", data.Index, "accepted", w.Accepted)
			return 0, fmt.Errorf("%w: asked for %d, already accepted %d", ErrServerRollback, data.Index, w.Accepted)
		}
		next = min(next, w.Disclosed-data.MinDecrement)
	}

	if next <= data.MinIndex {
		return 0, fmt.Errorf("%w: next index %d not above %d", ErrChainExhausted, next, data.MinIndex)
	}
	return next, nil
}

// Login fetches auth data, derives the next credential (and, when the server
// offers a new salt, the replacement chain's first credential), records the
// disclosure and signs in. The session is stored locally on success.
func (a *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	data, err := a.client.AuthData(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("auth data: %w", err)
	}

	next, err := a.nextIndex(ctx, username, data)
	if err != nil {
		return nil, err
	}

	m, err := a.manager(data.MinIndex, data.MaxIndex, data.MinIndex, data.MinDecrement, data.Salt)
	if err != nil {
		return nil, err
	}

	req := &pb.SigninRequest{Username: username}
	if req.Token, err = m.Generate(ctx, ratchet.GenerateRequest{Password: password, Index: next, Salt: data.Salt}); err != nil {
		return nil, err
	}

	rotate := data.SaltUpdate != ""
	if rotate {
		req.TokenUpdate, err = m.Generate(ctx, ratchet.GenerateRequest{Password: password, Index: data.IndexUpdate, Salt: data.SaltUpdate})
		if err != nil {
			return nil, err
		}
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := client.NewRepositories(tx)
		if err := repos.Disclosures.RecordDisclosed(ctx, username, data.Salt, next); err != nil {
			return err
		}
		if rotate {
			return repos.Disclosures.RecordDisclosed(ctx, username, data.SaltUpdate, data.IndexUpdate)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record disclosure: %w", err)
	}

	resp, err := a.client.Signin(ctx, req)
	if err != nil {
		return nil, err
	}

	salt, index := data.Salt, next
	if resp.Rotated {
		salt, index = data.SaltUpdate, data.IndexUpdate
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := client.NewRepositories(tx)
		if err := repos.Disclosures.RecordAccepted(ctx, username, salt, index); err != nil {
			return err
		}
		if err := repos.Metadata.Set(ctx, metadata.KeyUsername, username); err != nil {
			return err
		}
		return repos.Metadata.Set(ctx, metadata.KeyAccessToken, resp.AccessToken)
	})
	if err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}

	a.log.Info(ctx, "signed in", "user", username, "index", index, "rotated", resp.Rotated)
	return &LoginResult{Index: index, Rotated: resp.Rotated}, nil
}

// Whoami loads the stored access token and asks the server who it belongs to.
func (a *authService) Whoami(ctx context.Context) (*pb.WhoamiResponse, error) {
	token, err := client.NewRepositories(a.db).Metadata.Get(ctx, metadata.KeyAccessToken)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	a.client.SetAccessToken(token)
	return a.client.Whoami(ctx)
}

// Logout drops the stored session. Chain watermarks survive unless forget is
// set, in which case every watermark of the session user is removed too.
func (a *authService) Logout(ctx context.Context, forget bool) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repos := client.NewRepositories(tx)

		if forget {
			username, err := repos.Metadata.Get(ctx, metadata.KeyUsername)
			if errors.Is(err, common.ErrorNotFound) {
				return ErrNoSession
			}
			if err != nil {
				return err
			}
			if err := repos.Disclosures.Forget(ctx, username); err != nil {
				return err
			}
			a.log.Info(ctx, "watermarks forgotten", "user", username)
		}

		for _, key := range []string{metadata.KeyAccessToken, metadata.KeyUsername} {
			if err := repos.Metadata.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
