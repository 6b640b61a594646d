// Package feed keeps an optimistically updated view of a social feed in sync
// with an authoritative record store.
//
// Store owns the post sequence. Engagement (likes) and Threads (comments)
// keep per-post overlay state keyed by post id and write confirmed counts back
// into the Store; they never hold a second copy of a post. Every mutation
// passes through a Gate first, and failures are rolled back and reported to a
// Notifier instead of being treated as fatal.
package feed

import "go.uber.org/zap"

// Feed is the state behind one feed view.
type Feed struct {
	Gate     *Gate
	Store    *Store
	Likes    *Engagement
	Comments *Threads
}

// New wires a Feed around a record store, a session source and a notifier.
func New(remote RemoteStore, sessions SessionSource, notifier Notifier, logger *zap.Logger) *Feed {
	gate := NewGate(sessions, notifier)
	store := NewStore(remote, gate, notifier, logger)
	return &Feed{
		Gate:     gate,
		Store:    store,
		Likes:    NewEngagement(store, remote, gate, notifier, logger),
		Comments: NewThreads(store, remote, gate, notifier, logger),
	}
}
