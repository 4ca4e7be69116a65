package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"partywire/codec"
	"partywire/protocol"
)

// DefaultPrefix is the key prefix sessions are stored under:
//
//	Key:   /partywire/sessions/{sessionID}
//	Value: binary-encoded ControllerSet
const DefaultPrefix = "/partywire/sessions/"

// EtcdOptions configure an EtcdDirectory.
type EtcdOptions struct {
	Endpoints   []string
	DialTimeout time.Duration
	// TTL is the lease time of a session entry. A relay that stops renewing
	// loses its sessions once the lease expires.
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

// EtcdDirectory implements Directory on etcd v3. Every published session
// holds its own lease, kept alive until Remove or Close.
type EtcdDirectory struct {
	client *clientv3.Client
	ttl    int64
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	leases map[string]lease
}

type lease struct {
	id     clientv3.LeaseID
	cancel context.CancelFunc
}

func NewEtcdDirectory(opts EtcdOptions) (*EtcdDirectory, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("directory: no etcd endpoints")
	}
	ttl := int64(opts.TTL / time.Second)
	if ttl <= 0 {
		ttl = 10
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	return &EtcdDirectory{
		client: c,
		ttl:    ttl,
		prefix: opts.Prefix,
		logger: opts.Logger,
		leases: make(map[string]lease),
	}, nil
}

func (r *EtcdDirectory) key(sessionID string) string {
	return r.prefix + sessionID
}

// Publish writes the controller set of a session. The first publish of a
// session grants its lease and starts renewing it.
//
// The lease is created outside the lock, so two concurrent first publishes
// of one session may both grant; the loser revokes its own.
func (r *EtcdDirectory) Publish(ctx context.Context, sessionID string, controllers protocol.ControllerSet) error {
	val, err := codec.Marshal(controllers)
	if err != nil {
		return err
	}
	l, err := r.leaseFor(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := r.client.Put(ctx, r.key(sessionID), string(val), clientv3.WithLease(l)); err != nil {
		return fmt.Errorf("directory: publish %s: %w", sessionID, err)
	}
	return nil
}

func (r *EtcdDirectory) leaseFor(ctx context.Context, sessionID string) (clientv3.LeaseID, error) {
	r.mu.Lock()
	l, ok := r.leases[sessionID]
	r.mu.Unlock()
	if ok {
		return l.id, nil
	}

	grant, err := r.client.Grant(ctx, r.ttl)
	if err != nil {
		return 0, fmt.Errorf("directory: grant lease for %s: %w", sessionID, err)
	}
	// Renewal must outlive the publishing request.
	keepCtx, cancel := context.WithCancel(context.Background())
	ch, err := r.client.KeepAlive(keepCtx, grant.ID)
	if err != nil {
		cancel()
		return 0, fmt.Errorf("directory: keep lease for %s: %w", sessionID, err)
	}

	r.mu.Lock()
	if existing, ok := r.leases[sessionID]; ok {
		r.mu.Unlock()
		cancel()
		if _, err := r.client.Revoke(ctx, grant.ID); err != nil {
			r.logger.Warn("revoke lease", "session", sessionID, "error", err)
		}
		return existing.id, nil
	}
	r.leases[sessionID] = lease{id: grant.ID, cancel: cancel}
	r.mu.Unlock()
	go r.watchLease(sessionID, grant.ID, ch)
	return grant.ID, nil
}

// watchLease drains keepalive responses. The channel closes when renewal
// stops; if the lease is still on record at that point it was lost rather
// than removed, and the next Publish grants a new one.
func (r *EtcdDirectory) watchLease(sessionID string, id clientv3.LeaseID, ch <-chan *clientv3.LeaseKeepAliveResponse) {
	for range ch {
	}
	if r.forgetLease(sessionID, id) {
		r.logger.Warn("directory lease lost", "session", sessionID, "lease", int64(id))
	}
}

// forgetLease drops the record of a session's lease if it is still id.
func (r *EtcdDirectory) forgetLease(sessionID string, id clientv3.LeaseID) bool {
	r.mu.Lock()
	l, ok := r.leases[sessionID]
	if ok && l.id == id {
		delete(r.leases, sessionID)
	}
	r.mu.Unlock()
	if !ok || l.id != id {
		return false
	}
	l.cancel()
	return true
}

// Remove revokes the lease of a session, which deletes its entry.
func (r *EtcdDirectory) Remove(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	l, ok := r.leases[sessionID]
	delete(r.leases, sessionID)
	r.mu.Unlock()

	if !ok {
		// Published by another process or already expired.
		if _, err := r.client.Delete(ctx, r.key(sessionID)); err != nil {
			return fmt.Errorf("directory: remove %s: %w", sessionID, err)
		}
		return nil
	}
	l.cancel()
	if _, err := r.client.Revoke(ctx, l.id); err != nil {
		return fmt.Errorf("directory: remove %s: %w", sessionID, err)
	}
	return nil
}

// Snapshot reads every session under the prefix. Entries that do not decode
// as a controller set are skipped.
func (r *EtcdDirectory) Snapshot(ctx context.Context) (protocol.Statistics, error) {
	resp, err := r.client.Get(ctx, r.prefix, clientv3.WithPrefix())
	if err != nil {
		return protocol.Statistics{}, fmt.Errorf("directory: snapshot: %w", err)
	}
	tree := make(map[string]protocol.ControllerSet, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		id := strings.TrimPrefix(string(kv.Key), r.prefix)
		set, err := codec.Unmarshal[protocol.ControllerSet](kv.Value)
		if err != nil {
			r.logger.Warn("skipping malformed directory entry", "session", id, "error", err)
			continue
		}
		tree[id] = set
	}
	return protocol.Statistics{Tree: tree}, nil
}

// Watch re-reads the whole prefix on every change rather than applying
// individual events.
func (r *EtcdDirectory) Watch(ctx context.Context) <-chan protocol.Statistics {
	ch := make(chan protocol.Statistics, 1)
	go func() {
		defer close(ch)
		for range r.client.Watch(ctx, r.prefix, clientv3.WithPrefix()) {
			st, err := r.Snapshot(ctx)
			if err != nil {
				r.logger.Warn("directory watch", "error", err)
				continue
			}
			select {
			case ch <- st:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// Close revokes every lease held by this directory and closes the client.
func (r *EtcdDirectory) Close(ctx context.Context) error {
	r.mu.Lock()
	leases := r.leases
	r.leases = make(map[string]lease)
	r.mu.Unlock()

	for id, l := range leases {
		l.cancel()
		if _, err := r.client.Revoke(ctx, l.id); err != nil {
			r.logger.Warn("revoke lease", "session", id, "error", err)
		}
	}
	return r.client.Close()
}
