// Package directory publishes which controllers are attached to which
// session so that any process can assemble a Statistics snapshot.
package directory

import (
	"context"

	"partywire/protocol"
)

// Directory stores one controller set per session.
type Directory interface {
	// Publish replaces the controller set recorded for a session.
	Publish(ctx context.Context, sessionID string, controllers protocol.ControllerSet) error
	// Remove drops a session. Removing an unknown session is not an error.
	Remove(ctx context.Context, sessionID string) error
	// Snapshot returns every recorded session.
	Snapshot(ctx context.Context) (protocol.Statistics, error)
	// Watch emits a fresh snapshot after every change until ctx is done,
	// then closes the channel.
	Watch(ctx context.Context) <-chan protocol.Statistics
}
