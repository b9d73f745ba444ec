// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import "log/slog"

// Option configures extraction and repacking.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	workers int
	include []string
	pool    *BufferPool
}

func newOptions(opts []Option) options {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.pool == nil {
		o.pool = defaultPool
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// WithLogger sets the logger for progress and diagnostics.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWorkers sets how many containers are extracted concurrently.
// Repacking ignores it and always runs on a single writer.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithInclude restricts extraction to containers whose name matches at
// least one of the doublestar patterns, for example "data/car/**".
func WithInclude(patterns ...string) Option {
	return func(o *options) {
		o.include = append(o.include, patterns...)
	}
}

// WithBufferPool sets the pool container buffers are drawn from.
func WithBufferPool(pool *BufferPool) Option {
	return func(o *options) {
		o.pool = pool
	}
}
