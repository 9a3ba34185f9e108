// Package session manages one authenticated broker client per account.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/opentrade-labs/mobridge/internal/broker"
	"github.com/opentrade-labs/mobridge/internal/logger"
	"github.com/opentrade-labs/mobridge/internal/types"
	"github.com/opentrade-labs/mobridge/pkg/errors"
)

// Manager caches authenticated broker clients keyed by account user id.
// Login is lazy and at-most-once per account: concurrent fan-out workers
// that miss the cache at the same time consolidate onto a single in-flight
// login. Sessions have no expiry, refresh or logout path; a session lives
// until process restart.
type Manager struct {
	dialer broker.Dialer
	logger *logger.Logger

	mu       sync.Mutex
	sessions map[string]broker.Client
	inflight map[string]*loginCall
}

// loginCall tracks one in-flight login so duplicate callers can wait on it.
type loginCall struct {
	done   chan struct{}
	client broker.Client
	err    error
}

// NewManager creates a session manager over the given dialer.
func NewManager(dialer broker.Dialer, log *logger.Logger) *Manager {
	return &Manager{
		dialer:   dialer,
		logger:   log,
		mu:       sync.Mutex{},
		sessions: make(map[string]broker.Client),
		inflight: make(map[string]*loginCall),
	}
}

// Ensure returns the account's session, performing a login on first use.
// A cached session is returned without re-authentication.
func (m *Manager) Ensure(ctx context.Context, account types.AccountRecord) (broker.Client, error) {
	userID := account.UserID
	if userID == "" {
		return nil, errors.New(errors.ErrCodeSessionUnavailable, "account has no user id")
	}

	m.mu.Lock()

	if client, found := m.sessions[userID]; found {
		m.mu.Unlock()

		return client, nil
	}

	if call, found := m.inflight[userID]; found {
		m.mu.Unlock()
		<-call.done

		return call.client, call.err
	}

	call := &loginCall{
		done:   make(chan struct{}),
		client: nil,
		err:    nil,
	}
	m.inflight[userID] = call
	m.mu.Unlock()

	client, err := m.login(ctx, account)

	m.mu.Lock()
	delete(m.inflight, userID)

	if err == nil {
		m.sessions[userID] = client
	}
	m.mu.Unlock()

	call.client = client
	call.err = err
	close(call.done)

	return client, err
}

func (m *Manager) login(ctx context.Context, account types.AccountRecord) (broker.Client, error) {
	if !account.HasLoginCredentials() {
		m.logger.Error("missing credentials for account",
			zap.String("user_id", account.UserID),
		)

		return nil, errors.Newf(errors.ErrCodeMissingCredentials,
			"missing credentials for %s", account.UserID)
	}

	code := ""

	if seed := account.Credentials.TOTPKey; seed != "" {
		derived, err := totp.GenerateCode(seed, time.Now())
		if err != nil {
			m.logger.Warn("failed to derive one-time code, logging in without one",
				zap.String("user_id", account.UserID),
				zap.Error(err),
			)
		} else {
			code = derived
		}
	}

	client := m.dialer.Dial(account.Credentials.APIKey)

	resp, err := client.Login(ctx, broker.LoginRequest{
		UserID:     account.UserID,
		Password:   account.Credentials.Password,
		PAN:        account.Credentials.PAN,
		OTP:        code,
		VendorInfo: account.UserID,
	})
	if err != nil {
		m.logger.Error("login call failed",
			zap.String("user_id", account.UserID),
			zap.Error(err),
		)

		return nil, errors.Wrapf(errors.ErrCodeTransportFailed, err,
			"login failed for %s", account.UserID)
	}

	if !resp.Success() {
		m.logger.Error("login rejected",
			zap.String("user_id", account.UserID),
			zap.String("message", resp.Message),
		)

		return nil, errors.Newf(errors.ErrCodeAuthRejected,
			"login rejected for %s: %s", account.UserID, resp.Message)
	}

	m.logger.Info("session established",
		zap.String("user_id", account.UserID),
	)

	return client, nil
}

// Size returns the number of live sessions. Used for diagnostics and tests.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}
