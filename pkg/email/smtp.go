package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SMTPConfig configures the pooled SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// ImplicitTLS dials TLS directly (port 465) instead of using STARTTLS.
	ImplicitTLS bool
	// MaxConns bounds concurrent connections; senders block until a slot frees.
	MaxConns int
	// MaxMessagesPerConn recycles a connection after this many messages.
	MaxMessagesPerConn int
	// IdleTimeout drops pooled connections unused for longer than this.
	IdleTimeout time.Duration
	HelloName   string
}

// Dialer abstracts net.Dialer to simplify testing.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// SMTPOption configures the behaviour of the SMTP transport.
type SMTPOption func(*SMTPTransport)

// WithSMTPDialer swaps the network dialer used to establish SMTP connections.
func WithSMTPDialer(d Dialer) SMTPOption {
	return func(t *SMTPTransport) {
		if d != nil {
			t.dialer = d
		}
	}
}

// WithSMTPTLSConfig overrides the TLS configuration used for STARTTLS or implicit TLS.
func WithSMTPTLSConfig(cfg *tls.Config) SMTPOption {
	return func(t *SMTPTransport) {
		t.tlsConfig = cfg
	}
}

// WithSMTPAuth supplies a custom SMTP auth strategy.
func WithSMTPAuth(auth smtp.Auth) SMTPOption {
	return func(t *SMTPTransport) {
		t.auth = auth
	}
}

// WithSMTPClock replaces the clock used for Date headers and idle checks.
func WithSMTPClock(now func() time.Time) SMTPOption {
	return func(t *SMTPTransport) {
		if now != nil {
			t.now = now
		}
	}
}

type pooledConn struct {
	conn     net.Conn
	client   *smtp.Client
	sent     int
	lastUsed time.Time
}

// SMTPTransport sends mail through a relay using a bounded connection pool.
type SMTPTransport struct {
	cfg       SMTPConfig
	addr      string
	from      string
	auth      smtp.Auth
	tlsConfig *tls.Config
	dialer    Dialer
	now       func() time.Time

	slots chan struct{}

	mu     sync.Mutex
	idle   []*pooledConn
	closed bool
	dials  int
}

// NewSMTPTransport validates cfg and returns a transport. No connection is opened yet.
func NewSMTPTransport(cfg SMTPConfig, opts ...SMTPOption) (*SMTPTransport, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp: host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp: invalid port %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp: from address is required")
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 5
	}
	if cfg.MaxMessagesPerConn <= 0 {
		cfg.MaxMessagesPerConn = 100
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Second
	}
	if cfg.HelloName == "" {
		cfg.HelloName = "localhost"
	}

	t := &SMTPTransport{
		cfg:    cfg,
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:   strings.TrimSpace(cfg.From),
		dialer: &net.Dialer{Timeout: 30 * time.Second},
		now:    time.Now,
		slots:  make(chan struct{}, cfg.MaxConns),
		tlsConfig: &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		},
	}
	if strings.TrimSpace(cfg.Username) != "" {
		t.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

func (t *SMTPTransport) Name() string { return TransportSMTP }

// Ready reports whether the pool still accepts sends.
func (t *SMTPTransport) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Send blocks until a pool slot is free, then delivers msg on a pooled connection.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.To) == "" {
		return "", ErrNoRecipient
	}

	select {
	case t.slots <- struct{}{}:
	case <-ctx.Done():
		return "", fmt.Errorf("smtp: waiting for connection slot: %w", ctx.Err())
	}
	defer func() { <-t.slots }()

	pc, err := t.acquire(ctx)
	if err != nil {
		return "", err
	}

	messageID := NewMessageID(t.from)
	data := BuildMIME(FormatAddress(t.cfg.FromName, t.from), messageID, msg, t.now())

	if err := t.deliver(ctx, pc, msg.To, data); err != nil {
		t.discard(pc)
		return "", err
	}

	pc.sent++
	pc.lastUsed = t.now()
	t.release(pc)
	return messageID, nil
}

// Close quits every idle connection and rejects further sends.
func (t *SMTPTransport) Close() error {
	t.mu.Lock()
	idle := t.idle
	t.idle = nil
	t.closed = true
	t.mu.Unlock()

	for _, pc := range idle {
		_ = pc.client.Quit()
		_ = pc.conn.Close()
	}
	return nil
}

// Dials returns how many connections have been opened; used by tests.
func (t *SMTPTransport) Dials() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *SMTPTransport) acquire(ctx context.Context) (*pooledConn, error) {
	for {
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return nil, ErrTransportClosed
		}
		n := len(t.idle)
		if n == 0 {
			t.mu.Unlock()
			break
		}
		pc := t.idle[n-1]
		t.idle = t.idle[:n-1]
		t.mu.Unlock()

		if t.now().Sub(pc.lastUsed) > t.cfg.IdleTimeout {
			t.discard(pc)
			continue
		}
		release := bindDeadline(ctx, pc.conn)
		err := pc.client.Reset()
		release()
		if err != nil {
			t.discard(pc)
			if ctx.Err() != nil {
				return nil, fmt.Errorf("smtp: reset: %w", ctx.Err())
			}
			continue
		}
		return pc, nil
	}
	return t.dial(ctx)
}

func (t *SMTPTransport) release(pc *pooledConn) {
	if pc.sent >= t.cfg.MaxMessagesPerConn {
		_ = pc.client.Quit()
		_ = pc.conn.Close()
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = pc.client.Quit()
		_ = pc.conn.Close()
		return
	}
	t.idle = append(t.idle, pc)
	t.mu.Unlock()
}

func (t *SMTPTransport) discard(pc *pooledConn) {
	_ = pc.client.Close()
	_ = pc.conn.Close()
}

func (t *SMTPTransport) dial(ctx context.Context) (*pooledConn, error) {
	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("smtp: dial: %w", err)
	}

	t.mu.Lock()
	t.dials++
	t.mu.Unlock()

	if t.cfg.ImplicitTLS {
		conn = tls.Client(conn, t.sessionTLSConfig())
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp: new client: %w", err)
	}
	if err := client.Hello(t.cfg.HelloName); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("smtp: hello: %w", err)
	}
	if !t.cfg.ImplicitTLS && t.tlsConfig != nil {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(t.sessionTLSConfig()); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("smtp: starttls: %w", err)
			}
		}
	}
	if t.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(t.auth); err != nil {
				_ = client.Close()
				return nil, fmt.Errorf("smtp: auth: %w", err)
			}
		}
	}
	_ = conn.SetDeadline(time.Time{})

	return &pooledConn{conn: conn, client: client, lastUsed: t.now()}, nil
}

func (t *SMTPTransport) deliver(ctx context.Context, pc *pooledConn, to string, data []byte) error {
	defer bindDeadline(ctx, pc.conn)()

	if err := pc.client.Mail(t.from); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := pc.client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp: rcpt to: %w", err)
	}
	w, err := pc.client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp: data write: %w", err)
	}
	if err := w.Close(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("smtp: data close: %w", err)
	}
	return nil
}

// bindDeadline makes I/O on conn fail once ctx is done. The returned func
// clears the deadline again.
func bindDeadline(ctx context.Context, conn net.Conn) func() {
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return func() {
		stop()
		_ = conn.SetDeadline(time.Time{})
	}
}

func (t *SMTPTransport) sessionTLSConfig() *tls.Config {
	if t.tlsConfig == nil {
		return &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
	}
	cfg := t.tlsConfig.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = t.cfg.Host
	}
	return cfg
}
