// Package kvtest holds kvstore doubles for tests in other packages.
package kvtest

import (
	"context"
	"errors"
	"sync"

	"Storefront/internal/kvstore"
)

var ErrBroken = errors.New("storage unavailable")

// Flaky wraps a store and fails reads and/or writes on demand.
type Flaky struct {
	kvstore.Store

	mu         sync.Mutex
	failReads  bool
	failWrites bool
}

func NewFlaky(inner kvstore.Store) *Flaky {
	return &Flaky{Store: inner}
}

func (f *Flaky) FailReads(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = v
}

func (f *Flaky) FailWrites(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = v
}

func (f *Flaky) reads() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failReads
}

func (f *Flaky) writes() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failWrites
}

func (f *Flaky) Get(ctx context.Context, key string) (string, error) {
	if f.reads() {
		return "", ErrBroken
	}
	return f.Store.Get(ctx, key)
}

func (f *Flaky) Set(ctx context.Context, key, value string) error {
	if f.writes() {
		return ErrBroken
	}
	return f.Store.Set(ctx, key, value)
}

func (f *Flaky) Delete(ctx context.Context, key string) error {
	if f.writes() {
		return ErrBroken
	}
	return f.Store.Delete(ctx, key)
}

func (f *Flaky) Clear(ctx context.Context) error {
	if f.writes() {
		return ErrBroken
	}
	return f.Store.Clear(ctx)
}
