// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stream

import "time"

// Options configures the rendezvous timing of a Reader or Writer. The zero
// Options is invalid; use defaultOptions as the base and apply Option values
// over it, mirroring the functional-options idiom used throughout this
// repository's codec layers.
type Options struct {
	pathPollInterval  time.Duration
	connectRetryDelay time.Duration
	maxRecordLen      int
}

var defaultOptions = Options{
	pathPollInterval:  2 * time.Second,
	connectRetryDelay: 200 * time.Millisecond,
	maxRecordLen:      16 << 20, // largest application message the chain carries
}

// Option mutates an Options value.
type Option func(*Options)

// WithPathPollInterval overrides the interval a Reader waits between checks
// for the rendezvous path's existence.
func WithPathPollInterval(d time.Duration) Option {
	return func(o *Options) { o.pathPollInterval = d }
}

// WithConnectRetryDelay overrides the interval a Reader waits between
// connect attempts once the rendezvous path exists.
func WithConnectRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.connectRetryDelay = d }
}

// WithMaxRecordLen overrides the largest record length a Reader will accept
// before returning ErrTooLong.
func WithMaxRecordLen(n int) Option {
	return func(o *Options) { o.maxRecordLen = n }
}

func newOptions(opts []Option) Options {
	o := defaultOptions
	for _, apply := range opts {
		apply(&o)
	}
	return o
}
