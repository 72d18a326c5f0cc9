// Package client implements the XBDM client façade: one TCP connection
// per high-level operation, each following the
// connect/command/reply/BYE sequence, with connection metrics and
// bounded retry on transient failures.
package client

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/GoobyCorp/xbdm-go/protocol"
)

// Metrics tracks client-observed traffic across operations.
type Metrics struct {
	CommandsSent   atomic.Uint64
	CommandsFailed atomic.Uint64
	Reconnects     atomic.Uint32
}

// Client dials addr fresh for every high-level operation. It carries no
// persistent socket state between calls; a failed dial/exchange is
// retried with the exponential backoff in Retry, and MaxAttempts bounds
// the total number of attempts before the operation gives up.
type Client struct {
	Addr         string
	DialTimeout  time.Duration
	Retry        *backoff.ExponentialBackOff
	MaxAttempts  uint64
	Metrics      Metrics
}

// New builds a Client targeting addr with a conservative default
// backoff policy: bounded retries, capped delay.
func New(addr string) *Client {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0 // bounded by MaxAttempts instead
	return &Client{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
		Retry:       b,
		MaxAttempts: 3,
	}
}

// Reply is the parsed outcome of one command exchange: the status
// code/text, any multi-line body, and any binary payload received.
type Reply struct {
	Code   int
	Text   string
	Params map[string]protocol.Value
	Lines  []string
	Binary []byte
}

// Error is returned when the server replies with a non-2xx status.
type Error struct {
	Code int
	Text string
}

func (e *Error) Error() string {
	return fmt.Sprintf("xbdm: server replied %d %s", e.Code, e.Text)
}

// exchange opens one connection, performs the connect/command/reply/BYE
// sequence for a single command line, and returns the parsed reply.
// recovery and magicboot verbs skip the BYE handshake. A command line
// that would exceed protocol.MaxLineLength with its terminator is not
// sent; ErrLineTooLong is returned instead.
func (c *Client) exchange(ctx context.Context, verb string, extra func(fr *protocol.Framer, firstLine string) (Reply, error)) (Reply, error) {
	if len(verb)+2 > protocol.MaxLineLength {
		return Reply{}, protocol.ErrLineTooLong
	}
	var result Reply
	attempt := 0
	op := func() error {
		attempt++
		r, err := c.exchangeOnce(ctx, verb, extra)
		if err != nil {
			c.Metrics.CommandsFailed.Add(1)
			if attempt > 1 {
				c.Metrics.Reconnects.Add(1)
			}
			// A server-rejected command (4xx reply) is not a transient
			// failure a reconnect can fix; retrying it only wastes time.
			if _, ok := err.(*Error); ok {
				return backoff.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	}

	b := backoff.WithMaxRetries(c.Retry, c.MaxAttempts-1)
	if err := backoff.Retry(op, b); err != nil {
		return Reply{}, err
	}
	c.Metrics.CommandsSent.Add(1)
	return result, nil
}

func (c *Client) exchangeOnce(ctx context.Context, verb string, extra func(fr *protocol.Framer, firstLine string) (Reply, error)) (Reply, error) {
	dialer := net.Dialer{Timeout: c.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	fr := protocol.NewFramer(conn)
	greeting, err := fr.ReadLine()
	if err != nil {
		return Reply{}, fmt.Errorf("xbdm: read greeting: %w", err)
	}
	if len(greeting) < 3 || greeting[:3] != "201" {
		return Reply{}, fmt.Errorf("xbdm: unexpected greeting %q", greeting)
	}

	if err := fr.WriteLine(verb); err != nil {
		return Reply{}, err
	}

	line, err := fr.ReadLine()
	if err != nil {
		return Reply{}, fmt.Errorf("xbdm: read reply: %w", err)
	}

	reply, err := extra(fr, line)
	if err != nil {
		return Reply{}, err
	}

	if reply.Code >= 400 {
		return reply, &Error{Code: reply.Code, Text: reply.Text}
	}

	if isDetachedVerb(verb) {
		return reply, nil
	}

	if err := fr.WriteLine("BYE"); err != nil {
		return reply, err
	}
	if _, err := fr.ReadLine(); err != nil {
		return reply, err
	}
	return reply, nil
}

// isDetachedVerb reports whether verb closes the connection itself
// without the BYE handshake.
func isDetachedVerb(verb string) bool {
	for i := 0; i < len(verb); i++ {
		c := verb[i]
		if c == ' ' {
			verb = verb[:i]
			break
		}
	}
	return strings.EqualFold(verb, "recovery") || strings.EqualFold(verb, "magicboot")
}
