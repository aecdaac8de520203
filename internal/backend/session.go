// Package backend owns the session with the vector-index service.
//
// A session starts Online or Offline depending on a connectivity probe and
// moves from Online to Offline on the first transport failure. It never
// moves back; recovery requires a restart.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/domain"
	"github.com/kailas-cloud/vecgate/internal/metrics"
	"github.com/kailas-cloud/vecgate/internal/transport/endee"
	"github.com/kailas-cloud/vecgate/internal/wire"
)

const defaultProbeTimeout = 2 * time.Second

// Config holds session settings.
type Config struct {
	Dimension    int // length of the offline zero vector
	ProbeTimeout time.Duration
	Logger       *zap.Logger
}

// Session issues backend operations and substitutes fixed results while offline.
// Safe for concurrent use.
type Session struct {
	peer   peer
	mode   atomic.Int32
	dim    int
	logger *zap.Logger
}

// NewSession probes the backend and returns a session in the resulting mode.
func NewSession(ctx context.Context, p peer, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	s := &Session{peer: p, dim: cfg.Dimension, logger: logger}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Probe(probeCtx); err != nil {
		s.mode.Store(int32(Offline))
		metrics.BackendOnline.Set(0)
		logger.Warn("backend probe failed, starting offline", zap.Error(err))
		return s
	}

	s.mode.Store(int32(Online))
	metrics.BackendOnline.Set(1)
	logger.Info("backend probe succeeded, starting online")
	return s
}

// Mode returns the current mode.
func (s *Session) Mode() Mode { return Mode(s.mode.Load()) }

// Online reports whether the session still talks to the backend.
func (s *Session) Online() bool { return s.Mode() == Online }

// goOffline performs the one-way transition. Concurrent callers race harmlessly; only the winner logs.
func (s *Session) goOffline(op string, cause error) {
	if !s.mode.CompareAndSwap(int32(Online), int32(Offline)) {
		return
	}
	metrics.BackendOnline.Set(0)
	metrics.BackendFailoversTotal.Inc()
	s.logger.Warn("backend went offline", zap.String("op", op), zap.Error(cause))
}

// failed classifies a peer error, flipping the session on transport failure.
// It returns the outcome label recorded for the call.
func (s *Session) failed(op string, err error) string {
	var te *endee.TransportError
	if errors.As(err, &te) {
		s.goOffline(op, err)
		return "transport"
	}
	var se *endee.StatusError
	if errors.As(err, &se) {
		s.logger.Warn("backend returned error status",
			zap.String("op", op),
			zap.Int("status", se.Status),
			zap.String("body", se.Body),
		)
		return "status"
	}
	return "error"
}

func record(op, outcome string) {
	metrics.BackendRequestsTotal.WithLabelValues(op, outcome).Inc()
}

func offlineErr(op string) error {
	return fmt.Errorf("backend %s: %w: session offline", op, domain.ErrBackendUnavailable)
}

// CreateIndex creates a collection. Offline it fails without a network call.
func (s *Session) CreateIndex(ctx context.Context, spec domain.IndexSpec) error {
	if !s.Online() {
		record(endee.OpCreate, "substitute")
		return offlineErr(endee.OpCreate)
	}
	if _, err := s.peer.CreateIndex(ctx, spec); err != nil {
		record(endee.OpCreate, s.failed(endee.OpCreate, err))
		return fmt.Errorf("create index %s: %w", spec.Name, err)
	}
	record(endee.OpCreate, "ok")
	return nil
}

// DeleteIndex deletes a collection. Offline it fails without a network call.
func (s *Session) DeleteIndex(ctx context.Context, name string) error {
	if !s.Online() {
		record(endee.OpDelete, "substitute")
		return offlineErr(endee.OpDelete)
	}
	if _, err := s.peer.DeleteIndex(ctx, name); err != nil {
		record(endee.OpDelete, s.failed(endee.OpDelete, err))
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	record(endee.OpDelete, "ok")
	return nil
}

// Insert bulk-inserts vectors. Offline it succeeds iff items is non-empty.
func (s *Session) Insert(ctx context.Context, name string, items []domain.VectorItem) error {
	if len(items) == 0 {
		return domain.ErrEmptyBatch
	}
	if !s.Online() {
		record(endee.OpInsert, "substitute")
		return nil
	}
	if _, err := s.peer.Insert(ctx, name, items); err != nil {
		record(endee.OpInsert, s.failed(endee.OpInsert, err))
		return fmt.Errorf("insert into %s: %w", name, err)
	}
	record(endee.OpInsert, "ok")
	return nil
}

// Search runs a k-NN query and decodes the response.
//
// Offline, and on the transport failure that takes the session offline, the
// fixed mock list is returned with Substitute set. A non-success status is
// returned as an error. A malformed body is returned as a DecodeError together
// with a Payload carrying the raw bytes.
func (s *Session) Search(ctx context.Context, name string, vector []float32, k int) (wire.Payload, error) {
	if !s.Online() {
		record(endee.OpSearch, "substitute")
		return wire.Payload{Value: MockSearchValue(), Substitute: true}, nil
	}

	resp, err := s.peer.Search(ctx, name, vector, k)
	if err != nil {
		outcome := s.failed(endee.OpSearch, err)
		if outcome == "transport" {
			record(endee.OpSearch, "substitute")
			return wire.Payload{Value: MockSearchValue(), Substitute: true}, nil
		}
		record(endee.OpSearch, outcome)
		return wire.Payload{}, fmt.Errorf("search %s: %w", name, err)
	}

	payload := wire.Payload{Raw: resp.Body, ContentType: resp.ContentType}
	v, err := wire.Decode(resp.ContentType, resp.Body)
	if err != nil {
		record(endee.OpSearch, "decode")
		s.logger.Warn("undecodable search response",
			zap.String("content_type", resp.ContentType),
			zap.Int("bytes", len(resp.Body)),
			zap.Error(err),
		)
		return payload, fmt.Errorf("search %s: %w", name, err)
	}
	record(endee.OpSearch, "ok")
	payload.Value = v
	return payload, nil
}

// GetVector fetches the stored record for id.
//
// Offline it returns a zero vector of the configured dimension. Any failure
// to obtain a record, including an empty one, is ErrDocumentNotFound; a
// record that cannot be decoded is ErrVectorNotRecoverable.
func (s *Session) GetVector(ctx context.Context, name, id string) (wire.Payload, error) {
	if !s.Online() {
		record(endee.OpGetVector, "substitute")
		return wire.Payload{Value: zeroRecord(s.dim), Substitute: true}, nil
	}

	resp, err := s.peer.GetVector(ctx, name, id)
	if err != nil {
		record(endee.OpGetVector, s.failed(endee.OpGetVector, err))
		return wire.Payload{}, fmt.Errorf("get vector %q: %w: %w", id, domain.ErrDocumentNotFound, err)
	}

	payload := wire.Payload{Raw: resp.Body, ContentType: resp.ContentType}
	v, err := wire.Decode(resp.ContentType, resp.Body)
	if err != nil {
		record(endee.OpGetVector, "decode")
		return payload, fmt.Errorf("get vector %q: %w: %w", id, domain.ErrVectorNotRecoverable, err)
	}
	if empty(v) {
		record(endee.OpGetVector, "empty")
		return payload, fmt.Errorf("get vector %q: %w", id, domain.ErrDocumentNotFound)
	}
	record(endee.OpGetVector, "ok")
	payload.Value = v
	return payload, nil
}

// ListIndexes returns collection names. Offline the set is empty.
func (s *Session) ListIndexes(ctx context.Context) ([]string, error) {
	if !s.Online() {
		record(endee.OpList, "substitute")
		return nil, nil
	}

	resp, err := s.peer.ListIndexes(ctx)
	if err != nil {
		record(endee.OpList, s.failed(endee.OpList, err))
		return nil, fmt.Errorf("list indexes: %w", err)
	}

	v, err := wire.Decode(resp.ContentType, resp.Body)
	if err != nil {
		record(endee.OpList, "decode")
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	record(endee.OpList, "ok")
	return indexNames(v), nil
}

// indexNames reads {indexes: [{name}]} or a bare list of names or {name} entries.
func indexNames(v any) []string {
	items, ok := wire.Sequence(v)
	if !ok {
		m, isMap := wire.Mapping(v)
		if !isMap {
			return nil
		}
		if items, ok = wire.Sequence(m["indexes"]); !ok {
			return nil
		}
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if name, ok := item.(string); ok && name != "" {
			names = append(names, name)
			continue
		}
		if m, ok := wire.Mapping(item); ok {
			if name, ok := m["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case bool:
		return !x
	default:
		return false
	}
}
