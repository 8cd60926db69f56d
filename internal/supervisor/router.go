package supervisor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"llamactl/internal/llamaclient"
	"llamactl/pkg/types"
)

type residentState string

const (
	residentLoaded    residentState = "loaded"
	residentLoading   residentState = "loading"
	residentUnloading residentState = "unloading"
)

// residentModel is the local book-keeping for one model a router-mode
// server holds in memory.
type residentModel struct {
	id         string
	state      residentState
	loadedAt   time.Time
	lastAccess time.Time
	// seq orders loads on clocks too coarse abreast to distinguish them.
	seq      uint64
	inflight int
}

type registryConfig struct {
	endpoint     string
	maxModels    int
	autoload     bool
	drainTimeout time.Duration
	client       *llamaclient.Client
	log          zerolog.Logger
	publisher    EventPublisher
}

// modelRegistry mirrors which models are resident on a router-mode
// server and enforces the cap with LRU eviction. Residency changes only
// through registry operations; drift on the server side is reconciled
// by refresh. Load/unload sequences are serialized by the supervisor's
// op lock, mu only guards the map for concurrent readers.
type modelRegistry struct {
	endpoint     string
	max          int
	autoload     bool
	drainTimeout time.Duration
	client       *llamaclient.Client
	log          zerolog.Logger
	publisher    EventPublisher

	mu     sync.Mutex
	models map[string]*residentModel
	seq    uint64
}

func newModelRegistry(rc registryConfig) *modelRegistry {
	return &modelRegistry{
		endpoint:     rc.endpoint,
		max:          rc.maxModels,
		autoload:     rc.autoload,
		drainTimeout: rc.drainTimeout,
		client:       rc.client,
		log:          rc.log,
		publisher:    rc.publisher,
		models:       make(map[string]*residentModel),
	}
}

// ensureLoaded makes id resident, evicting the LRU idle model when the
// cap is hit. With autoload off a non-resident model is an error
// surfaced to the caller, never a silent load.
func (r *modelRegistry) ensureLoaded(ctx context.Context, id string) error {
	r.mu.Lock()
	if m, ok := r.models[id]; ok && m.state == residentLoaded {
		m.lastAccess = time.Now()
		r.mu.Unlock()
		return nil
	}
	autoload := r.autoload
	r.mu.Unlock()

	if !autoload {
		return ErrModelNotLoaded(id)
	}
	if err := r.evictFor(ctx, id); err != nil {
		return err
	}
	return r.load(ctx, id)
}

// load makes id resident without evicting anyone: at the cap the
// caller gets the capacity error and decides what to unload.
func (r *modelRegistry) load(ctx context.Context, id string) error {
	r.mu.Lock()
	if m, ok := r.models[id]; ok && m.state == residentLoaded {
		m.lastAccess = time.Now()
		r.mu.Unlock()
		return nil
	}
	if len(r.models) >= r.max {
		max := r.max
		r.mu.Unlock()
		return capacityExceededError{id: id, max: max}
	}
	now := time.Now()
	r.seq++
	m := &residentModel{id: id, state: residentLoading, loadedAt: now, lastAccess: now, seq: r.seq}
	r.models[id] = m
	r.mu.Unlock()

	if err := r.client.LoadModel(ctx, r.endpoint, id); err != nil {
		r.mu.Lock()
		delete(r.models, id)
		r.mu.Unlock()
		return fmt.Errorf("load %s: %w", id, err)
	}

	r.mu.Lock()
	now = time.Now()
	m.state = residentLoaded
	m.loadedAt = now
	m.lastAccess = now
	count := len(r.models)
	r.mu.Unlock()
	metricModelLoads.Inc()
	metricResidentModels.Set(float64(count))
	r.publisher.Publish(Event{Name: EventModelLoaded, ModelID: id})
	r.log.Info().Str("model", id).Msg("model loaded")
	return nil
}

// evictFor frees a slot for id when the cap is reached. The victim is
// the least-recently-accessed loaded model with no requests in flight,
// ties broken by earliest load. No eligible victim means every
// resident model is busy and the caller gets the capacity error.
func (r *modelRegistry) evictFor(ctx context.Context, id string) error {
	for {
		r.mu.Lock()
		if len(r.models) < r.max {
			r.mu.Unlock()
			return nil
		}
		victim := r.victimLocked()
		if victim == nil {
			max := r.max
			r.mu.Unlock()
			return capacityExceededError{id: id, max: max}
		}
		victim.state = residentUnloading
		vid := victim.id
		r.mu.Unlock()

		if err := r.client.UnloadModel(ctx, r.endpoint, vid); err != nil {
			r.mu.Lock()
			if m, ok := r.models[vid]; ok {
				m.state = residentLoaded
			}
			r.mu.Unlock()
			return fmt.Errorf("evict %s: %w", vid, err)
		}

		r.mu.Lock()
		delete(r.models, vid)
		count := len(r.models)
		r.mu.Unlock()
		metricEvictions.Inc()
		metricResidentModels.Set(float64(count))
		r.publisher.Publish(Event{Name: EventModelEvicted, ModelID: vid})
		r.log.Info().Str("model", vid).Str("for", id).Msg("evicted least recently used model")
	}
}

func (r *modelRegistry) victimLocked() *residentModel {
	var lru *residentModel
	for _, m := range r.models {
		if m.state != residentLoaded || m.inflight > 0 {
			continue
		}
		if lru == nil {
			lru = m
			continue
		}
		if m.lastAccess.Before(lru.lastAccess) ||
			(m.lastAccess.Equal(lru.lastAccess) && m.seq < lru.seq) {
			lru = m
		}
	}
	return lru
}

// unload removes id from residency. Unloading a model that is not
// resident is a no-op that never contacts the server. In-flight
// requests get drainTimeout to finish, then the unload proceeds anyway.
func (r *modelRegistry) unload(ctx context.Context, id string) error {
	r.mu.Lock()
	m, ok := r.models[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	m.state = residentUnloading
	r.mu.Unlock()

	deadline := time.Now().Add(r.drainTimeout)
	for {
		r.mu.Lock()
		inflight := m.inflight
		r.mu.Unlock()
		if inflight == 0 {
			break
		}
		if time.Now().After(deadline) {
			r.log.Warn().Str("model", id).Int("inflight", inflight).Msg("unloading with requests in flight")
			break
		}
		select {
		case <-ctx.Done():
			r.mu.Lock()
			m.state = residentLoaded
			r.mu.Unlock()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := r.client.UnloadModel(ctx, r.endpoint, id); err != nil {
		r.mu.Lock()
		m.state = residentLoaded
		r.mu.Unlock()
		return fmt.Errorf("unload %s: %w", id, err)
	}

	r.mu.Lock()
	delete(r.models, id)
	count := len(r.models)
	r.mu.Unlock()
	metricResidentModels.Set(float64(count))
	r.publisher.Publish(Event{Name: EventModelUnloaded, ModelID: id})
	r.log.Info().Str("model", id).Msg("model unloaded")
	return nil
}

// refresh reconciles local book-keeping with the server's own list:
// entries the server no longer reports are dropped, unknown loaded
// models are adopted with fresh timestamps.
func (r *modelRegistry) refresh(ctx context.Context) error {
	infos, err := r.client.ListModels(ctx, r.endpoint)
	if err != nil {
		return err
	}
	now := time.Now()
	r.mu.Lock()
	next := make(map[string]*residentModel, len(infos))
	for _, info := range infos {
		if !info.Loaded() {
			continue
		}
		if m, ok := r.models[info.ID]; ok {
			m.state = residentLoaded
			next[info.ID] = m
			continue
		}
		r.seq++
		next[info.ID] = &residentModel{
			id: info.ID, state: residentLoaded, loadedAt: now, lastAccess: now, seq: r.seq,
		}
	}
	dropped := len(r.models) - countRetained(r.models, next)
	adopted := len(next) - countRetained(r.models, next)
	r.models = next
	count := len(next)
	r.mu.Unlock()
	metricResidentModels.Set(float64(count))
	if dropped > 0 || adopted > 0 {
		r.log.Info().Int("dropped", dropped).Int("adopted", adopted).Msg("reconciled resident models with server")
	}
	return nil
}

func countRetained(old, next map[string]*residentModel) int {
	n := 0
	for id := range next {
		if _, ok := old[id]; ok {
			n++
		}
	}
	return n
}

// pin marks one in-flight request on a resident model, shielding it
// from eviction. The returned release is idempotent.
func (r *modelRegistry) pin(id string) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[id]
	if !ok {
		return func() {}
	}
	m.inflight++
	m.lastAccess = time.Now()
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if m.inflight > 0 {
				m.inflight--
			}
			m.lastAccess = time.Now()
		})
	}
}

// snapshot returns the residency list sorted by id.
func (r *modelRegistry) snapshot() []types.ResidentModel {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.ResidentModel, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, types.ResidentModel{
			ID:             m.id,
			State:          string(m.state),
			LoadedAtUnix:   m.loadedAt.Unix(),
			LastAccessUnix: m.lastAccess.Unix(),
			Inflight:       m.inflight,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// routerRegistry returns the active registry or the typed error for
// the caller's situation.
func (s *Supervisor) routerRegistry(op string) (*modelRegistry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateRunning {
		return nil, notRunningError{op: op}
	}
	if s.router == nil {
		return nil, wrongModeError{op: op}
	}
	return s.router, nil
}

// EnsureModelLoaded makes model resident on the router-mode server,
// evicting the least-recently-used idle model if the cap is hit. With
// autoload disabled a non-resident model is reported, not loaded.
func (s *Supervisor) EnsureModelLoaded(ctx context.Context, model string) error {
	s.checkAlive()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	r, err := s.routerRegistry("ensure model")
	if err != nil {
		return err
	}
	return r.ensureLoaded(ctx, model)
}

// LoadModel loads a model explicitly, without evicting: at the cap the
// caller gets the capacity error and decides what to unload.
func (s *Supervisor) LoadModel(ctx context.Context, model string) error {
	s.checkAlive()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	r, err := s.routerRegistry("load model")
	if err != nil {
		return err
	}
	return r.load(ctx, model)
}

// UnloadModel unloads a model. Unloading a non-resident model is a
// no-op.
func (s *Supervisor) UnloadModel(ctx context.Context, model string) error {
	s.checkAlive()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	r, err := s.routerRegistry("unload model")
	if err != nil {
		return err
	}
	return r.unload(ctx, model)
}

// RefreshModels re-reads the server's model list and returns the
// reconciled residency.
func (s *Supervisor) RefreshModels(ctx context.Context) ([]types.ResidentModel, error) {
	s.checkAlive()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	r, err := s.routerRegistry("list models")
	if err != nil {
		return nil, err
	}
	if err := r.refresh(ctx); err != nil {
		return nil, err
	}
	return r.snapshot(), nil
}

// AcquireModel ensures model is resident and pins it for one request,
// so eviction never takes a model mid-generation. The returned release
// must be called when the request finishes.
func (s *Supervisor) AcquireModel(ctx context.Context, model string) (func(), error) {
	s.checkAlive()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	r, err := s.routerRegistry("acquire model")
	if err != nil {
		return nil, err
	}
	if err := r.ensureLoaded(ctx, model); err != nil {
		return nil, err
	}
	return r.pin(model), nil
}
