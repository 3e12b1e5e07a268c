package services

import (
	"context"
	"errors"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/ports"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// QueryState is the lifecycle stage of a ProximityQuery.
type QueryState int

const (
	StateIdle QueryState = iota
	StateLocating
	StateFetching
	StateReady
	StateError
)

func (s QueryState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocating:
		return "locating"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("QueryState(%d)", int(s))
	}
}

// ErrorKind classifies the failure held by a query in StateError.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorLocationUnavailable
	ErrorDataFetchFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorLocationUnavailable:
		return "location_unavailable"
	case ErrorDataFetchFailed:
		return "data_fetch_failed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ErrQueryClosed is returned by mutators called after Close.
var ErrQueryClosed = errors.New("proximity query: closed")

const defaultLocateTimeout = 10 * time.Second

// Snapshot is the presentation view of a ProximityQuery.
//
// Results and Reference always belong to the same acquisition. They stay populated
// while a refresh is in flight or has failed, so the last good list remains visible.
type Snapshot struct {
	Version   uint64
	State     QueryState
	Results   []domain.AnnotatedGig
	ErrorKind ErrorKind
	Err       error
	Radius    float64
	SortKey   domain.SortKey
	Reference *domain.GeoPoint
}

type ProximityQueryOptions struct {
	// Radii is the allowed radius set. Defaults to domain.DefaultRadii.
	Radii domain.RadiusSet
	// Radius is the initial radius; must be in Radii. Defaults to Radii.Default().
	Radius  float64
	SortKey domain.SortKey
	// LocateTimeout bounds a single geolocation attempt.
	LocateTimeout time.Duration
	Logger        *slog.Logger
	// OnChange receives a snapshot after every published transition.
	// Snapshots may arrive out of order across goroutines; compare Version.
	OnChange func(Snapshot)
}

// ProximityQuery finds gigs near the caller's position.
//
// It acquires a reference point from a LocationSource, fetches candidates from a
// GigRepository, then filters and sorts them in memory:
//
//	IDLE -> LOCATING -> FETCHING -> READY
//	LOCATING | FETCHING -> ERROR
//
// Radius and sort changes re-run filter+sort against the data already held and never
// re-locate or re-fetch. At most one locate and one fetch are in flight; a newer
// request supersedes an older one, and results arriving after Close are discarded.
//
// The query is safe for concurrent use.
type ProximityQuery struct {
	locator       ports.LocationSource
	repo          ports.GigRepository
	radii         domain.RadiusSet
	locateTimeout time.Duration
	logger        *slog.Logger
	onChange      func(Snapshot)

	baseCtx  context.Context
	teardown context.CancelFunc

	mu       sync.Mutex
	settled  *sync.Cond
	inflight int
	closed   bool
	version  uint64
	state    QueryState
	errKind  ErrorKind
	err      error
	radius   float64
	sortKey  domain.SortKey
	results  []domain.AnnotatedGig
	held     pipelineInput

	// Reference acquired by the latest locate, waiting for its candidate set.
	pendingRef *domain.GeoPoint

	locateSeq    uint64
	fetchSeq     uint64
	cancelLocate context.CancelFunc
	cancelFetch  context.CancelFunc
}

// pipelineInput pairs a reference point with the candidate set fetched for it.
type pipelineInput struct {
	reference  *domain.GeoPoint
	candidates []domain.Gig
}

func NewProximityQuery(
	locator ports.LocationSource,
	repo ports.GigRepository,
	opts ProximityQueryOptions,
) (*ProximityQuery, error) {
	if locator == nil {
		return nil, errors.New("new proximity query: location source must be non-nil")
	}
	if repo == nil {
		return nil, errors.New("new proximity query: gig repository must be non-nil")
	}

	radii := opts.Radii
	if len(radii.Values()) == 0 {
		radii = domain.DefaultRadii
	}

	radius := opts.Radius
	if radius == 0 {
		radius = radii.Default()
	}
	if err := radii.Validate(radius); err != nil {
		return nil, fmt.Errorf("new proximity query: %w", err)
	}

	timeout := opts.LocateTimeout
	if timeout <= 0 {
		timeout = defaultLocateTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &ProximityQuery{
		locator:       locator,
		repo:          repo,
		radii:         radii,
		locateTimeout: timeout,
		logger:        logger,
		onChange:      opts.OnChange,
		baseCtx:       ctx,
		teardown:      cancel,
		state:         StateIdle,
		radius:        radius,
		sortKey:       opts.SortKey,
	}
	q.settled = sync.NewCond(&q.mu)
	return q, nil
}

// Start begins the first acquisition. It is a no-op unless the query is idle.
func (q *ProximityQuery) Start() {
	q.mu.Lock()
	if q.closed || q.state != StateIdle {
		q.mu.Unlock()
		return
	}
	q.beginLocateLocked()
	snap := q.publishedLocked()
	q.mu.Unlock()

	q.publish(snap)
}

// RefreshLocation re-acquires the reference point and re-runs the full pipeline.
// The current reference and results stay visible until the new acquisition succeeds.
func (q *ProximityQuery) RefreshLocation() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueryClosed
	}
	q.beginLocateLocked()
	snap := q.publishedLocked()
	q.mu.Unlock()

	q.publish(snap)
	return nil
}

// Retry recovers from StateError. A location failure re-enters LOCATING; a fetch
// failure re-enters FETCHING with the reference point already acquired.
// It is a no-op in any other state.
func (q *ProximityQuery) Retry() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueryClosed
	}
	if q.state != StateError {
		q.mu.Unlock()
		return nil
	}

	switch q.errKind {
	case ErrorDataFetchFailed:
		if q.pendingRef != nil {
			q.beginFetchLocked()
			break
		}
		q.beginLocateLocked()
	default:
		q.beginLocateLocked()
	}
	snap := q.publishedLocked()
	q.mu.Unlock()

	q.publish(snap)
	return nil
}

// SetRadius selects one of the allowed radii and re-filters the held data synchronously.
func (q *ProximityQuery) SetRadius(km float64) error {
	if err := q.radii.Validate(km); err != nil {
		return fmt.Errorf("set radius: %w", err)
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueryClosed
	}
	q.radius = km
	q.recomputeLocked()
	snap := q.publishedLocked()
	q.mu.Unlock()

	q.publish(snap)
	return nil
}

// SetSortKey changes the ordering and re-sorts the held data synchronously.
func (q *ProximityQuery) SetSortKey(key domain.SortKey) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueryClosed
	}
	q.sortKey = key
	q.recomputeLocked()
	snap := q.publishedLocked()
	q.mu.Unlock()

	q.publish(snap)
	return nil
}

// Radii returns the allowed radius set.
func (q *ProximityQuery) Radii() domain.RadiusSet { return q.radii }

// Snapshot returns the current presentation state.
func (q *ProximityQuery) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Close tears the query down. Outstanding operations are cancelled and any
// late resolution is discarded; the state stays as it was at Close.
func (q *ProximityQuery) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cancelLocate = nil
	q.cancelFetch = nil
	q.mu.Unlock()

	q.teardown()
	q.logger.Debug("proximity query closed")
}

// Wait blocks until no locate or fetch is in flight. It may be called while
// other goroutines start new work; it returns at the first settled moment.
func (q *ProximityQuery) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.inflight > 0 {
		q.settled.Wait()
	}
}

func (q *ProximityQuery) doneInflight() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if q.inflight == 0 {
		q.settled.Broadcast()
	}
}

// locate asks the source for a position but gives up when ctx ends, so a source
// that ignores cancellation cannot hold the query in LOCATING.
func (q *ProximityQuery) locate(ctx context.Context) (domain.GeoPoint, error) {
	type result struct {
		p   domain.GeoPoint
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := q.locator.CurrentPosition(ctx)
		ch <- result{p, err}
	}()

	select {
	case r := <-ch:
		return r.p, r.err
	case <-ctx.Done():
		return domain.GeoPoint{}, ctx.Err()
	}
}

func (q *ProximityQuery) beginLocateLocked() {
	// A new locate supersedes any in-flight locate and any fetch for an older reference.
	if q.cancelLocate != nil {
		q.cancelLocate()
	}
	if q.cancelFetch != nil {
		q.cancelFetch()
		q.cancelFetch = nil
	}
	q.fetchSeq++

	q.locateSeq++
	seq := q.locateSeq

	ctx, cancel := context.WithTimeout(q.baseCtx, q.locateTimeout)
	q.cancelLocate = cancel
	q.transitionLocked(StateLocating)

	q.inflight++
	go func() {
		defer q.doneInflight()
		defer cancel()

		p, err := q.locate(ctx)
		if err == nil {
			err = p.Validate()
		}
		q.finishLocate(seq, p, err)
	}()
}

func (q *ProximityQuery) finishLocate(seq uint64, p domain.GeoPoint, err error) {
	q.mu.Lock()
	if q.closed || seq != q.locateSeq {
		q.mu.Unlock()
		q.logger.Debug("proximity query: discarding stale location", "seq", seq)
		return
	}
	q.cancelLocate = nil

	if err != nil {
		q.logger.Warn("proximity query: location unavailable", "err", err)
		q.failLocked(ErrorLocationUnavailable, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err))
		snap := q.publishedLocked()
		q.mu.Unlock()
		q.publish(snap)
		return
	}

	q.pendingRef = &p
	q.beginFetchLocked()
	snap := q.publishedLocked()
	q.mu.Unlock()

	q.publish(snap)
}

func (q *ProximityQuery) beginFetchLocked() {
	if q.cancelFetch != nil {
		q.cancelFetch()
	}
	q.fetchSeq++
	seq := q.fetchSeq
	ref := *q.pendingRef

	ctx, cancel := context.WithCancel(q.baseCtx)
	q.cancelFetch = cancel
	q.transitionLocked(StateFetching)

	q.inflight++
	go func() {
		defer q.doneInflight()
		defer cancel()

		gigs, err := q.repo.ListGigs(ctx)
		q.finishFetch(seq, ref, gigs, err)
	}()
}

func (q *ProximityQuery) finishFetch(seq uint64, ref domain.GeoPoint, gigs []domain.Gig, err error) {
	q.mu.Lock()
	if q.closed || seq != q.fetchSeq {
		q.mu.Unlock()
		q.logger.Debug("proximity query: discarding stale fetch", "seq", seq)
		return
	}
	q.cancelFetch = nil

	if err != nil {
		q.logger.Warn("proximity query: fetch failed", "err", err)
		q.failLocked(ErrorDataFetchFailed, fmt.Errorf("%w: %w", domain.ErrDataFetchFailed, err))
		snap := q.publishedLocked()
		q.mu.Unlock()
		q.publish(snap)
		return
	}

	q.held = pipelineInput{reference: &ref, candidates: slices.Clone(gigs)}
	q.pendingRef = nil
	q.err = nil
	q.errKind = ErrorNone
	q.recomputeLocked()
	q.transitionLocked(StateReady)
	snap := q.publishedLocked()
	q.mu.Unlock()

	q.publish(snap)
}

func (q *ProximityQuery) recomputeLocked() {
	in := q.held
	if in.reference == nil {
		q.results = nil
		return
	}
	filtered := FilterWithinRadiusWithLogger(q.logger, *in.reference, in.candidates, q.radius)
	q.results = SortGigs(filtered, q.sortKey)
}

func (q *ProximityQuery) failLocked(kind ErrorKind, err error) {
	q.errKind = kind
	q.err = err
	q.transitionLocked(StateError)
}

func (q *ProximityQuery) transitionLocked(next QueryState) {
	if next != StateError {
		q.errKind = ErrorNone
		q.err = nil
	}
	if q.state != next {
		q.logger.Debug("proximity query transition", "from", q.state.String(), "to", next.String())
	}
	q.state = next
}

// publishedLocked bumps the version and returns the snapshot to hand to OnChange.
func (q *ProximityQuery) publishedLocked() Snapshot {
	q.version++
	return q.snapshotLocked()
}

func (q *ProximityQuery) snapshotLocked() Snapshot {
	var ref *domain.GeoPoint
	if q.held.reference != nil {
		r := *q.held.reference
		ref = &r
	}

	return Snapshot{
		Version:   q.version,
		State:     q.state,
		Results:   slices.Clone(q.results),
		ErrorKind: q.errKind,
		Err:       q.err,
		Radius:    q.radius,
		SortKey:   q.sortKey,
		Reference: ref,
	}
}

func (q *ProximityQuery) publish(snap Snapshot) {
	if q.onChange == nil {
		return
	}
	q.onChange(snap)
}
