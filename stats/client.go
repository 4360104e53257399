// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stats

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Client owns the UDP socket to a statsd collector and the 1-second flush
// loop that drains a Handler's counters into it.
type Client struct {
	conn   net.Conn
	prefix string
	h      *Handler
}

// NewClient connects (UDP "connect", i.e. sets a default destination) to
// addr and returns a Client that will flush h under prefix.
func NewClient(addr, prefix string, h *Handler) (*Client, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("stats: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, prefix: prefix, h: h}, nil
}

// Handler returns the counters/gauges this client flushes, so worker
// goroutines can share the same accumulators the flush loop drains.
func (c *Client) Handler() *Handler { return c.h }

// Run flushes c's handler once a second until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pipeline := c.h.Pipeline(c.prefix)
			if len(pipeline) == 0 {
				continue
			}
			if _, err := c.conn.Write(pipeline); err != nil {
				// A dropped statsd datagram is not fatal to the handler;
				// the next flush simply tries again.
				continue
			}
		}
	}
}

// Close releases the underlying socket.
func (c *Client) Close() error { return c.conn.Close() }
