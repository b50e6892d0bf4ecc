package email

import (
	"context"
	"fmt"
	"time"

	"contact-mail-proxy/pkg/apperror"
	"contact-mail-proxy/pkg/security"
	"contact-mail-proxy/pkg/validation"

	"go.uber.org/zap"
)

// DefaultSendTimeout bounds one send when no timeout is configured.
const DefaultSendTimeout = 30 * time.Second

// Result is the outcome of one dispatch. ErrorID is opaque; the provider error is
// only logged.
type Result struct {
	Success   bool
	MessageID string
	ErrorID   string
}

// Dispatcher hands messages to the configured transport and converts every
// failure into an opaque Result.
type Dispatcher struct {
	transport Transport
	timeout   time.Duration
	log       *zap.SugaredLogger
	security  *security.SecurityLogger
	newID     func() string
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the process logger used for dispatch logs.
func WithLogger(log *zap.SugaredLogger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithSecurityLogger sets where failed sends are reported.
func WithSecurityLogger(sl *security.SecurityLogger) DispatcherOption {
	return func(d *Dispatcher) {
		if sl != nil {
			d.security = sl
		}
	}
}

// WithErrorIDs overrides the error id generator.
func WithErrorIDs(gen func() string) DispatcherOption {
	return func(d *Dispatcher) {
		if gen != nil {
			d.newID = gen
		}
	}
}

func NewDispatcher(t Transport, timeout time.Duration, opts ...DispatcherOption) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	d := &Dispatcher{
		transport: t,
		timeout:   timeout,
		log:       zap.NewNop().Sugar(),
		security:  security.DefaultLogger(),
		newID:     apperror.NewErrorID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Send delivers msg. It never returns an error: failures, including a send that
// outlives the timeout, become Result{Success: false, ErrorID: ...}.
func (d *Dispatcher) Send(ctx context.Context, msg Message) Result {
	if !validation.IsEmail(msg.To) {
		return d.fail(ctx, msg.To, ErrInvalidRecipient)
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	type outcome struct {
		id  string
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("transport panic: %v", r)}
			}
		}()
		id, err := d.transport.Send(sendCtx, msg)
		done <- outcome{id: id, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return d.fail(ctx, msg.To, out.err)
		}
		d.log.Infow("mail dispatched",
			"transport", d.transport.Name(),
			"to", security.MaskEmail(msg.To),
			"message_id", out.id,
			"request_id", security.RequestIDFrom(ctx),
		)
		return Result{Success: true, MessageID: out.id}
	case <-sendCtx.Done():
		return d.fail(ctx, msg.To, fmt.Errorf("send timed out after %s: %w", d.timeout, sendCtx.Err()))
	}
}

func (d *Dispatcher) fail(ctx context.Context, to string, cause error) Result {
	errorID := d.newID()
	terr := &apperror.TransportError{Transport: d.transport.Name(), Err: cause}
	d.log.Errorw("mail dispatch failed",
		"transport", d.transport.Name(),
		"to", security.MaskEmail(to),
		"error_id", errorID,
		"request_id", security.RequestIDFrom(ctx),
		"error", terr,
	)
	d.security.LogDispatchFailed(ctx, to, errorID, d.transport.Name(), terr)
	return Result{Success: false, ErrorID: errorID}
}
