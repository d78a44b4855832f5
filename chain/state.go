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

package chain

// AppendOutcome is the state an in-flight append moves through. It
// exists for observability (logging, metrics); callers never drive it
// directly, Append does.
type AppendOutcome int

const (
	// Idle is the state before the write lock is acquired.
	Idle AppendOutcome = iota
	// Locked is the state after the write lock is held and a
	// transaction is open.
	Locked
	// Committed is terminal: the transaction committed and the lock was
	// released.
	Committed
	// RolledBack is terminal: any error during Locked rolled the
	// transaction back and released the lock.
	RolledBack
)

func (o AppendOutcome) String() string {
	switch o {
	case Idle:
		return "Idle"
	case Locked:
		return "Locked"
	case Committed:
		return "Committed"
	case RolledBack:
		return "RolledBack"
	default:
		return "Unknown"
	}
}
