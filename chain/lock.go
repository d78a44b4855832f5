// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

// Package chain implements the Chain Service: the single global write
// lock, block-number assignment, and the append/validate/rollback/
// import/export operations that mutate the ledger.
package chain

import "sync"

// LockToken proves to an internal method that the caller already holds
// the Service's write lock. Only WithWriteLock mints one; there is no
// public constructor. This replaces a parallel "xWithoutLock" method
// family with a single set of methods gated on possession of a token.
// The Recovery Manager is the only caller outside this package that
// carries one, and it must never acquire a second lock of its own.
type LockToken struct {
	svc *Service
}

// belongsTo reports whether t was minted by svc, guarding against a
// token from one Service being replayed against another.
func (t LockToken) belongsTo(svc *Service) bool {
	return t.svc == svc
}

// writeLock is a write-preferring readers-writer lock: Go's sync.RWMutex
// already blocks new readers behind a pending writer, so no custom
// starvation-avoidance layer is needed on top of it.
type writeLock struct {
	mu sync.RWMutex
}

func (l *writeLock) lockWrite()   { l.mu.Lock() }
func (l *writeLock) unlockWrite() { l.mu.Unlock() }
func (l *writeLock) lockRead()    { l.mu.RLock() }
func (l *writeLock) unlockRead()  { l.mu.RUnlock() }
