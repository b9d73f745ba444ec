// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rrdat

import (
	"math/bits"
	"sync"
)

const (
	minPoolShift = 16 // 64 KiB
	maxPoolShift = 30 // 1 GiB
)

// BufferPool hands out container-sized byte buffers from power-of-two size
// classes, so consecutive containers of similar size reuse memory.
type BufferPool struct {
	classes [maxPoolShift - minPoolShift + 1]sync.Pool
}

// NewBufferPool returns an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

var defaultPool = NewBufferPool()

// Get returns a buffer of length n and a function that gives it back to
// the pool. The buffer must not be used after release. Buffers larger than
// the biggest class are allocated directly and never pooled.
func (p *BufferPool) Get(n int) (buf []byte, release func()) {
	class := sizeClass(n)
	if class < 0 {
		return make([]byte, n), func() {}
	}

	pool := &p.classes[class]
	bp, _ := pool.Get().(*[]byte)
	if bp == nil {
		b := make([]byte, 1<<(class+minPoolShift))
		bp = &b
	}
	return (*bp)[:n], func() { pool.Put(bp) }
}

// sizeClass returns the pool index for a buffer of n bytes, or -1 when n
// is too large to pool.
func sizeClass(n int) int {
	if n <= 1<<minPoolShift {
		return 0
	}
	shift := bits.Len(uint(n - 1))
	if shift > maxPoolShift {
		return -1
	}
	return shift - minPoolShift
}
