package email_test

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contact-mail-proxy/pkg/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTPServer speaks just enough SMTP for net/smtp: no TLS, no AUTH.
type fakeSMTPServer struct {
	ln net.Listener

	mu       sync.Mutex
	messages []string
	rcpts    []string

	open       int32
	maxOpen    int32
	delay      time.Duration
	stallReset atomic.Bool
}

func newFakeSMTPServer(t *testing.T) *fakeSMTPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeSMTPServer{ln: ln}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeSMTPServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTPServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeSMTPServer) handle(conn net.Conn) {
	n := atomic.AddInt32(&s.open, 1)
	for {
		m := atomic.LoadInt32(&s.maxOpen)
		if n <= m || atomic.CompareAndSwapInt32(&s.maxOpen, m, n) {
			break
		}
	}
	defer atomic.AddInt32(&s.open, -1)
	defer conn.Close()

	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP fake")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch verb {
		case "EHLO":
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 8BITMIME")
		case "RSET":
			// A stalled peer never answers; the client has to give up on its own.
			if s.stallReset.Load() {
				continue
			}
			_ = tp.PrintfLine("250 OK")
		case "HELO", "MAIL", "NOOP":
			_ = tp.PrintfLine("250 OK")
		case "RCPT":
			s.mu.Lock()
			s.rcpts = append(s.rcpts, line)
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK")
		case "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			if s.delay > 0 {
				time.Sleep(s.delay)
			}
			s.mu.Lock()
			s.messages = append(s.messages, string(data))
			s.mu.Unlock()
			_ = tp.PrintfLine("250 OK queued")
		case "QUIT":
			_ = tp.PrintfLine("221 Bye")
			return
		default:
			_ = tp.PrintfLine("502 Command not implemented")
		}
	}
}

func (s *fakeSMTPServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

func newSMTP(t *testing.T, srv *fakeSMTPServer, maxConns, maxMessages int) *email.SMTPTransport {
	t.Helper()
	tr, err := email.NewSMTPTransport(email.SMTPConfig{
		Host:               "127.0.0.1",
		Port:               srv.port(),
		From:               "noreply@example.com",
		FromName:           "Acme",
		MaxConns:           maxConns,
		MaxMessagesPerConn: maxMessages,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestSMTPTransportReusesConnection(t *testing.T) {
	srv := newFakeSMTPServer(t)
	tr := newSMTP(t, srv, 1, 100)

	for i := 0; i < 3; i++ {
		id, err := tr.Send(context.Background(), validMessage())
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(id, "@example.com>"))
	}

	assert.Equal(t, 1, tr.Dials())
	msgs := srv.received()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0], "From: Acme <noreply@example.com>")
	assert.Contains(t, msgs[0], "To: jane@example.com")
}

func TestSMTPTransportRecyclesAfterMaxMessages(t *testing.T) {
	srv := newFakeSMTPServer(t)
	tr := newSMTP(t, srv, 1, 2)

	for i := 0; i < 3; i++ {
		_, err := tr.Send(context.Background(), validMessage())
		require.NoError(t, err)
	}

	assert.Equal(t, 2, tr.Dials())
	assert.Len(t, srv.received(), 3)
}

func TestSMTPTransportBoundsConcurrentConnections(t *testing.T) {
	srv := newFakeSMTPServer(t)
	srv.delay = 20 * time.Millisecond
	tr := newSMTP(t, srv, 2, 100)

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.Send(context.Background(), validMessage())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, srv.received(), 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&srv.maxOpen), int32(2))
	assert.LessOrEqual(t, tr.Dials(), 2)
}

func TestSMTPTransportSlotWaitHonoursContext(t *testing.T) {
	srv := newFakeSMTPServer(t)
	srv.delay = 300 * time.Millisecond
	tr := newSMTP(t, srv, 1, 100)

	go func() { _, _ = tr.Send(context.Background(), validMessage()) }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := tr.Send(ctx, validMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for connection slot")
}

func TestSMTPTransportResetHonoursContext(t *testing.T) {
	srv := newFakeSMTPServer(t)
	tr := newSMTP(t, srv, 1, 100)

	_, err := tr.Send(context.Background(), validMessage())
	require.NoError(t, err)

	srv.stallReset.Store(true)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = tr.Send(ctx, validMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	// The stalled connection was dropped and its slot released.
	srv.stallReset.Store(false)
	_, err = tr.Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Dials())
}

func TestSMTPTransportClosed(t *testing.T) {
	srv := newFakeSMTPServer(t)
	tr := newSMTP(t, srv, 1, 100)
	require.NoError(t, tr.Close())

	assert.False(t, tr.Ready())
	_, err := tr.Send(context.Background(), validMessage())
	assert.ErrorIs(t, err, email.ErrTransportClosed)
}

func TestNewSMTPTransportValidation(t *testing.T) {
	_, err := email.NewSMTPTransport(email.SMTPConfig{Port: 587, From: "a@b.co"})
	assert.Error(t, err)
	_, err = email.NewSMTPTransport(email.SMTPConfig{Host: "smtp.example.com", Port: 0, From: "a@b.co"})
	assert.Error(t, err)
	_, err = email.NewSMTPTransport(email.SMTPConfig{Host: "smtp.example.com", Port: 587})
	assert.Error(t, err)
}
