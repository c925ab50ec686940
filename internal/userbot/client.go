// Package userbot reads presence from Telegram through a user account session
// (MTProto). It implements monitor.Source.
package userbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"presencebot/internal/monitor"
	"presencebot/internal/presence"
)

var errNotConnected = errors.New("userbot client is not running")

const (
	DefaultCallTimeout     = 30 * time.Second
	DefaultReconnectWindow = 2 * time.Minute
)

type Options struct {
	AppID   int
	AppHash string
	Storage session.Storage
	Logger  *slog.Logger

	// CallTimeout bounds the wait for a ready connection and every RPC.
	// Expiry is reported as monitor.ErrConnectionLost.
	CallTimeout time.Duration
	// ReconnectWindow is how long the MTProto client retries a dropped
	// connection on its own before it stops and IsConnected turns false.
	ReconnectWindow time.Duration
	// Resolver overrides the DC resolver. Nil uses gotd's default.
	Resolver dcs.Resolver
}

// Client owns one MTProto connection at a time. Connect replaces the
// previous connection.
type Client struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	client  *telegram.Client
	cancel  context.CancelFunc
	done    chan struct{}
	targets map[string]*tg.InputUser
}

func New(opts Options) (*Client, error) {
	if opts.AppID == 0 || opts.AppHash == "" {
		return nil, errors.New("userbot: api id and api hash are required")
	}
	if opts.Storage == nil {
		return nil, errors.New("userbot: session storage is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.ReconnectWindow <= 0 {
		opts.ReconnectWindow = DefaultReconnectWindow
	}
	return &Client{
		opts:    opts,
		logger:  opts.Logger.With("component", "userbot"),
		targets: make(map[string]*tg.InputUser),
	}, nil
}

var _ monitor.Source = (*Client)(nil)

// Connect starts a fresh client and returns once it is ready to serve calls,
// or with monitor.ErrConnectionLost when it is not ready within CallTimeout.
// The connection lives until ctx is cancelled, Close is called, the next
// Connect, or the reconnect window runs out.
func (c *Client) Connect(ctx context.Context) error {
	c.Close()

	client := telegram.NewClient(c.opts.AppID, c.opts.AppHash, telegram.Options{
		SessionStorage:      c.opts.Storage,
		NoUpdates:           true,
		Resolver:            c.opts.Resolver,
		ReconnectionBackoff: c.reconnectBackoff,
		OnDead: func() {
			c.logger.Warn("MTProto connection dead, client is reconnecting")
		},
	})
	runCtx, cancel := context.WithCancel(ctx)
	ready := make(chan struct{})
	done := make(chan struct{})

	var runErr error
	go func() {
		defer close(done)
		runErr = client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	timer := time.NewTimer(c.opts.CallTimeout)
	defer timer.Stop()

	select {
	case <-ready:
	case <-timer.C:
		cancel()
		<-done
		return fmt.Errorf("%w: client not ready after %s", monitor.ErrConnectionLost, c.opts.CallTimeout)
	case <-done:
		cancel()
		if runErr == nil {
			runErr = errNotConnected
		}
		err := classifyError(fmt.Errorf("start client: %w", runErr))
		if _, flood := monitor.AsFloodWait(err); flood || monitor.IsConnectionLost(err) {
			return err
		}
		return fmt.Errorf("%w: %w", monitor.ErrConnectionLost, err)
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}

	c.mu.Lock()
	c.client = client
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()
	c.logger.Debug("MTProto client ready")
	return nil
}

// IsConnected reports whether the current client is still running.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	client, err := c.current()
	if err != nil {
		return false, err
	}
	var authorized bool
	err = c.call(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		authorized = status.Authorized
		return nil
	})
	return authorized, err
}

// Presence fetches the subject's current status. subject is either a numeric
// user id or a substring of a contact's name.
func (c *Client) Presence(ctx context.Context, subject string) (presence.Reading, error) {
	client, err := c.current()
	if err != nil {
		return nil, err
	}
	api := client.API()

	var reading presence.Reading
	err = c.call(ctx, func(ctx context.Context) error {
		input, err := c.resolve(ctx, api, subject)
		if err != nil {
			return err
		}
		users, err := api.UsersGetUsers(ctx, []tg.InputUserClass{input})
		if err != nil {
			c.forgetRejected(subject, err)
			return fmt.Errorf("get user %d: %w", input.UserID, err)
		}
		for _, u := range users {
			if user, ok := u.(*tg.User); ok && user.ID == input.UserID {
				reading = ConvertStatus(user.Status)
				return nil
			}
		}
		return fmt.Errorf("user %d not returned by the server", input.UserID)
	})
	return reading, err
}

// call runs fn under CallTimeout. A timeout while ctx is still live means
// the connection stopped answering.
func (c *Client) call(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: no answer within %s: %w", monitor.ErrConnectionLost, c.opts.CallTimeout, err)
	}
	return classifyError(err)
}

// forgetRejected drops a cached target the server refused, so the next poll
// resolves it again.
func (c *Client) forgetRejected(subject string, err error) bool {
	if !tgerr.Is(err, "PEER_ID_INVALID", "USER_ID_INVALID") {
		return false
	}
	c.mu.Lock()
	delete(c.targets, subject)
	c.mu.Unlock()
	c.logger.Warn("Target rejected by the server, resolving again on next check", "subject", subject, "err", err)
	return true
}

func (c *Client) reconnectBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.opts.ReconnectWindow
	return b
}

// Close stops the running client, if any, and waits for it to exit.
func (c *Client) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.client, c.cancel, c.done = nil, nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *Client) current() (*telegram.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, fmt.Errorf("%w: %w", monitor.ErrConnectionLost, errNotConnected)
	}
	select {
	case <-c.done:
		return nil, fmt.Errorf("%w: %w", monitor.ErrConnectionLost, errNotConnected)
	default:
		return c.client, nil
	}
}

func (c *Client) resolve(ctx context.Context, api *tg.Client, subject string) (*tg.InputUser, error) {
	c.mu.Lock()
	input, ok := c.targets[subject]
	c.mu.Unlock()
	if ok {
		return input, nil
	}

	res, err := api.ContactsGetContacts(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	var users []tg.UserClass
	if contacts, ok := res.(*tg.ContactsContacts); ok {
		users = contacts.Users
	}

	user, err := MatchContact(users, subject)
	switch {
	case err == nil:
		input = &tg.InputUser{UserID: user.ID, AccessHash: user.AccessHash}
		c.logger.Info("Target resolved", "subject", subject, "name", DisplayName(user), "user_id", user.ID)
	case errors.Is(err, ErrContactNotFound):
		id, perr := strconv.ParseInt(subject, 10, 64)
		if perr != nil {
			return nil, err
		}
		// not in the address book; works only if the server accepts a zero hash
		input = &tg.InputUser{UserID: id}
		c.logger.Warn("Target is not a contact, using bare user id", "subject", subject)
	default:
		return nil, err
	}

	c.mu.Lock()
	c.targets[subject] = input
	c.mu.Unlock()
	return input, nil
}
