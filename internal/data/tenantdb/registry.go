// Package tenantdb owns the process-wide set of department connection pools.
// One pool exists per (server, credential class). Concurrent first use of a key
// performs a single connect while unrelated keys connect in parallel.
package tenantdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/qldt/qldt-api/internal/domain/tenant"
	apperrors "github.com/qldt/qldt-api/internal/errors"
	obserrors "github.com/qldt/qldt-api/internal/observability/errors"
	"github.com/qldt/qldt-api/internal/observability/statsd"
	"github.com/qldt/qldt-api/internal/ports"
)

// State is the lifecycle state of one registry entry.
type State string

const (
	StateConnecting State = "connecting"
	StateReady      State = "ready"
	StateBroken     State = "broken"
)

// DefaultConnectTimeout bounds a single connect attempt when none is configured.
const DefaultConnectTimeout = 15 * time.Second

var (
	// ErrRegistryClosed is returned by Acquire after ShutdownAll.
	ErrRegistryClosed = errors.New("pool registry is shut down")
	// errEvictedWhileConnecting is returned to waiters when the key was evicted mid-connect.
	errEvictedWhileConnecting = errors.New("pool evicted while connecting")
)

type entry struct {
	key      tenant.PoolKey
	db       *sql.DB
	state    State
	openedAt time.Time
}

// PoolStatus is a point-in-time view of one entry.
type PoolStatus struct {
	Key      string    `json:"key"`
	ServerID string    `json:"server_id"`
	Class    string    `json:"class"`
	State    State     `json:"state"`
	OpenedAt time.Time `json:"opened_at,omitzero"`
}

// RegistryOptions groups dependencies for Registry.
type RegistryOptions struct {
	Connector      ports.Connector
	ConnectTimeout time.Duration
	// IsConnectionError classifies errors that mark a pool broken. Defaults to IsConnectionError.
	IsConnectionError func(error) bool
	Metrics           statsd.Sink
	Logger            *slog.Logger
}

// Registry is a keyed set of live pools. It is safe for concurrent use.
type Registry struct {
	connector      ports.Connector
	connectTimeout time.Duration
	isConnErr      func(error) bool
	metrics        statsd.Sink
	logger         *slog.Logger

	mu      sync.RWMutex
	entries map[tenant.PoolKey]*entry
	closed  bool

	group singleflight.Group
}

var _ ports.PoolRegistry = (*Registry)(nil)

// NewRegistry constructs an empty registry.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.Connector == nil {
		return nil, errors.New("connector is required")
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	isConnErr := opts.IsConnectionError
	if isConnErr == nil {
		isConnErr = IsConnectionError
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = statsd.Discard
	}
	return &Registry{
		connector:      opts.Connector,
		connectTimeout: timeout,
		isConnErr:      isConnErr,
		metrics:        metrics,
		logger:         logger,
		entries:        make(map[tenant.PoolKey]*entry),
	}, nil
}

// Acquire returns the ready pool for key, connecting with profile on first use.
// Concurrent callers for the same key share one in-flight connect. A failed connect
// leaves the key absent so the next call starts fresh; there is no internal retry.
// Errors are AppErrors with code pool_connection_failed.
func (r *Registry) Acquire(ctx context.Context, key tenant.PoolKey, profile tenant.CredentialProfile) (*sql.DB, error) {
	if db, ok, err := r.lookupReady(key); err != nil || ok {
		if ok {
			r.count("hit", key)
		}
		return db, err
	}

	// leader is set only when this caller's function runs; joiners share its result.
	var leader bool
	ch := r.group.DoChan(key.String(), func() (any, error) {
		leader = true
		return r.connect(ctx, key, profile)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			r.count("error", key)
			return nil, res.Err
		}
		if leader {
			r.count("miss", key)
		} else {
			r.count("shared", key)
		}
		db, _ := res.Val.(*sql.DB)
		return db, nil
	case <-ctx.Done():
		r.count("error", key)
		return nil, apperrors.PoolConnectionFailed(fmt.Errorf("wait for %s: %w", key, ctx.Err()))
	}
}

func (r *Registry) lookupReady(key tenant.PoolKey) (*sql.DB, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, false, apperrors.PoolConnectionFailed(ErrRegistryClosed)
	}
	if e, ok := r.entries[key]; ok && e.state == StateReady {
		return e.db, true, nil
	}
	return nil, false, nil
}

// connect runs inside the singleflight for key. The dial itself is detached from the
// first caller's cancellation and bounded by connectTimeout, since other callers may
// be waiting on the same result.
func (r *Registry) connect(ctx context.Context, key tenant.PoolKey, profile tenant.CredentialProfile) (*sql.DB, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, apperrors.PoolConnectionFailed(ErrRegistryClosed)
	}
	if e, ok := r.entries[key]; ok && e.state == StateReady {
		r.mu.Unlock()
		return e.db, nil
	}
	pending := &entry{key: key, state: StateConnecting}
	r.entries[key] = pending
	r.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := r.connector.Open(dialCtx, profile)
	elapsed := time.Since(start)

	r.mu.Lock()
	current, stillPending := r.entries[key]
	stillPending = stillPending && current == pending
	if err != nil || !stillPending {
		if stillPending {
			delete(r.entries, key)
		}
		r.mu.Unlock()

		if err == nil {
			err = errEvictedWhileConnecting
			if cerr := db.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close discarded pool: %w", cerr))
			}
		}
		r.metrics.Timing("tenantdb.connect.duration", elapsed, map[string]string{"class": key.Class.String(), "result": "error"})
		r.logger.Warn("tenant pool connect failed",
			"key", key.String(),
			"profile", profile,
			"duration", elapsed,
			"error_type", obserrors.Classify(err),
			"error", err,
		)
		return nil, apperrors.PoolConnectionFailed(fmt.Errorf("connect %s: %w", key, err))
	}
	pending.db = db
	pending.state = StateReady
	pending.openedAt = time.Now()
	r.mu.Unlock()

	r.metrics.Timing("tenantdb.connect.duration", elapsed, map[string]string{"class": key.Class.String(), "result": "success"})
	r.gaugeOpen()
	r.logger.Info("tenant pool connected", "key", key.String(), "profile", profile, "duration", elapsed)
	return db, nil
}

// Report marks the pool for key broken and evicts it when err is connection-class
// and db is still the pool registered under key. A failure observed on a pool that
// was already replaced leaves the replacement alone. It returns true when an
// eviction happened.
func (r *Registry) Report(key tenant.PoolKey, db *sql.DB, err error) bool {
	if err == nil || db == nil || !r.isConnErr(err) {
		return false
	}

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok || e.state != StateReady || e.db != db {
		r.mu.Unlock()
		return false
	}
	e.state = StateBroken
	delete(r.entries, key)
	r.mu.Unlock()

	r.logger.Warn("tenant pool marked broken", "key", key.String(), "error_type", obserrors.Classify(err), "error", err)
	r.metrics.Count("tenantdb.evict", 1, map[string]string{"class": key.Class.String(), "reason": "broken"})
	r.gaugeOpen()
	if cerr := e.db.Close(); cerr != nil {
		r.logger.Warn("close broken pool failed", "key", key.String(), "error", cerr)
	}
	return true
}

// Evict closes and removes the pool for key. Evicting a key that is still
// connecting discards that connection once it completes.
func (r *Registry) Evict(key tenant.PoolKey) error {
	r.mu.Lock()
	e, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()
	// Callers arriving from now on start their own connect instead of joining
	// the one whose result is about to be discarded.
	r.group.Forget(key.String())

	if !ok {
		return nil
	}
	r.metrics.Count("tenantdb.evict", 1, map[string]string{"class": key.Class.String(), "reason": "explicit"})
	r.gaugeOpen()
	if e.state != StateReady || e.db == nil {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close pool %s: %w", key, err)
	}
	return nil
}

// ShutdownAll closes every pool and rejects further acquisition.
func (r *Registry) ShutdownAll() error {
	r.mu.Lock()
	r.closed = true
	entries := r.entries
	r.entries = make(map[tenant.PoolKey]*entry)
	r.mu.Unlock()

	var errs []error
	for key, e := range entries {
		r.group.Forget(key.String())
		if e.state != StateReady || e.db == nil {
			continue
		}
		if err := e.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pool %s: %w", key, err))
		}
	}
	if len(entries) > 0 {
		r.logger.Info("tenant pools closed", "count", len(entries))
	}
	return errors.Join(errs...)
}

// State returns the state of key, or false when the key is absent.
func (r *Registry) State(key tenant.PoolKey) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return "", false
	}
	return e.state, true
}

// Snapshot lists every entry ordered by key.
func (r *Registry) Snapshot() []PoolStatus {
	r.mu.RLock()
	out := make([]PoolStatus, 0, len(r.entries))
	for key, e := range r.entries {
		out = append(out, PoolStatus{
			Key:      key.String(),
			ServerID: key.ServerID,
			Class:    key.Class.String(),
			State:    e.state,
			OpenedAt: e.openedAt,
		})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (r *Registry) count(result string, key tenant.PoolKey) {
	r.metrics.Count("tenantdb.acquire", 1, map[string]string{"class": key.Class.String(), "result": result})
}

// gaugeOpen reports how many pools are ready.
func (r *Registry) gaugeOpen() {
	r.mu.RLock()
	var ready int
	for _, e := range r.entries {
		if e.state == StateReady {
			ready++
		}
	}
	r.mu.RUnlock()
	r.metrics.Gauge("tenantdb.pools.open", float64(ready), nil)
}
