package pool

import (
	"context"
	"fmt"
	"sync"
)

//go:generate mockgen -destination=mocks/provider.go -package=mocks github.com/LeJamon/ammquote/internal/pool Provider

// Provider supplies the current state of a pool.
type Provider interface {
	Snapshot(ctx context.Context, key Key) (Snapshot, error)
}

// Static serves snapshots held in memory, such as pools given on the command
// line.
type Static struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func NewStatic(snapshots ...Snapshot) (*Static, error) {
	s := &Static{snapshots: make(map[string]Snapshot, len(snapshots))}
	for _, snap := range snapshots {
		if err := s.Put(snap); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Static) Put(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("pool %s: %w", snap.Key(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Key().ID()] = snap
	return nil
}

func (s *Static) Snapshot(ctx context.Context, key Key) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	snap, ok := s.snapshots[key.ID()]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return snap, nil
}
