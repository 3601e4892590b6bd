// Package history keeps a bounded undo/redo trail of canvas snapshots.
package history

import "github.com/example/toonretouch/internal/snapshot"

// MaxHistory is the default number of snapshots retained.
const MaxHistory = 5

// Buffer is a linear history with a cursor. Pushing after an undo discards the
// redo branch. When the buffer is full the oldest entry is evicted.
//
// Index is -1 when empty. CanUndo requires at least one entry before the
// cursor, so a single snapshot cannot be undone.
type Buffer struct {
	snapshots []snapshot.Snapshot
	index     int
	capacity  int
}

// New returns an empty Buffer holding at most MaxHistory snapshots.
func New() *Buffer { return NewWithCapacity(MaxHistory) }

// NewWithCapacity returns an empty Buffer bounded to n snapshots. n < 1 is
// treated as 1.
func NewWithCapacity(n int) *Buffer {
	if n < 1 {
		n = 1
	}
	return &Buffer{index: -1, capacity: n}
}

// Push records s as the current state.
func (b *Buffer) Push(s snapshot.Snapshot) {
	b.snapshots = append(b.snapshots[:b.index+1], s)
	if len(b.snapshots) > b.capacity {
		// shift left, keeping the cursor on the newest entry
		copy(b.snapshots, b.snapshots[1:])
		b.snapshots[len(b.snapshots)-1] = ""
		b.snapshots = b.snapshots[:len(b.snapshots)-1]
	} else {
		b.index++
	}
}

// Undo moves the cursor back and returns the snapshot now current.
func (b *Buffer) Undo() (snapshot.Snapshot, bool) {
	if !b.CanUndo() {
		return "", false
	}
	b.index--
	return b.snapshots[b.index], true
}

// Redo moves the cursor forward and returns the snapshot now current.
func (b *Buffer) Redo() (snapshot.Snapshot, bool) {
	if !b.CanRedo() {
		return "", false
	}
	b.index++
	return b.snapshots[b.index], true
}

// Current returns the snapshot at the cursor.
func (b *Buffer) Current() (snapshot.Snapshot, bool) {
	if b.index < 0 {
		return "", false
	}
	return b.snapshots[b.index], true
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	clear(b.snapshots)
	b.snapshots = b.snapshots[:0]
	b.index = -1
}

// CanUndo reports whether an entry before the cursor exists. The first
// entry is the baseline and cannot be undone past.
func (b *Buffer) CanUndo() bool { return b.index > 0 }

// CanRedo reports whether an undone entry can be reapplied.
func (b *Buffer) CanRedo() bool { return b.index < len(b.snapshots)-1 }

// Len returns the number of retained snapshots.
func (b *Buffer) Len() int { return len(b.snapshots) }

// Index returns the cursor position, -1 when empty.
func (b *Buffer) Index() int { return b.index }

// Capacity returns the maximum number of retained snapshots.
func (b *Buffer) Capacity() int { return b.capacity }
