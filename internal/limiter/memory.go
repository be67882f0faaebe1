package limiter

import (
	"context"
	"sync"
	"time"
)

type memKey struct {
	subject string
	ip      string
}

type memEntry struct {
	fails        int
	lastFail     time.Time
	blockedUntil time.Time
}

// Memory is the in-process counterpart of PG for single-instance runs
// without a database. Counters are lost on restart.
type Memory struct {
	mu       sync.Mutex
	entries  map[memKey]*memEntry
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

// NewMemory constructs an in-process limiter with the same policy as NewPG.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		entries:  make(map[memKey]*memEntry),
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
	}
}

func key(subject string, ipHash []byte) memKey {
	return memKey{subject: normalize(subject), ip: string(ipHash)}
}

func (l *Memory) Allow(_ context.Context, subject string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key(subject, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if now := l.now(); e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

func (l *Memory) Success(_ context.Context, subject string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key(subject, ipHash))
	return nil
}

func (l *Memory) Failure(_ context.Context, subject string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key(subject, ipHash)
	now := l.now()
	e, ok := l.entries[k]
	if !ok {
		e = &memEntry{}
		l.entries[k] = e
	}
	if now.Sub(e.lastFail) > l.window {
		e.fails = 0
	}
	e.fails++
	e.lastFail = now
	if e.fails < l.maxFails {
		return false, 0, nil
	}
	e.blockedUntil = now.Add(l.blockFor)
	return true, l.blockFor, nil
}
