package screen

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"moviebox/internal/content"
	"moviebox/internal/logging"
	"moviebox/internal/moviecard"
	"moviebox/internal/services"
	"moviebox/internal/tmdb"
)

// ContentSource supplies movie content and stored cards.
type ContentSource interface {
	FetchMovieContent(ctx context.Context, movieID int64) (*content.MovieContent, error)
	ReloadMovieCard(ctx context.Context, movieID int64) (*moviecard.Card, error)
}

// CardMaterializer merges a movie with its optional stored card.
type CardMaterializer interface {
	Materialize(ctx context.Context, info tmdb.MovieDetails, existing *moviecard.Card) moviecard.Card
}

// ErrClosed is returned by operations on a closed model.
var ErrClosed = errors.New("movie content model closed")

// ModelOptions configures a MovieContentModel.
type ModelOptions struct {
	Formatter Formatter
	Logger    *slog.Logger
	Clock     func() time.Time
}

type update func(Snapshot) Snapshot

// MovieContentModel is the state holder of one movie content screen.
type MovieContentModel struct {
	movieID      int64
	source       ContentSource
	materializer CardMaterializer
	format       Formatter
	logger       *slog.Logger
	now          func() time.Time

	updates chan update
	current atomic.Pointer[Snapshot]
	done    chan struct{}
	stopped chan struct{}

	lifetime context.Context
	stop     context.CancelFunc

	subMu  sync.Mutex
	subs   map[int]chan Snapshot
	nextID int

	infoMu  sync.Mutex
	info    *content.MovieInfo
	loading bool

	reloadMu     sync.Mutex
	reloadGen    atomic.Uint64
	reloadCancel context.CancelFunc

	closeOnce sync.Once
}

// NewMovieContentModel creates an idle model for movieID and starts its
// update goroutine. Call Close to release it.
func NewMovieContentModel(movieID int64, source ContentSource, materializer CardMaterializer, opts ModelOptions) *MovieContentModel {
	lifetime, stop := context.WithCancel(context.Background())
	m := &MovieContentModel{
		movieID:      movieID,
		source:       source,
		materializer: materializer,
		format:       opts.Formatter,
		logger:       logging.NewComponentLogger(opts.Logger, "screen"),
		now:          opts.Clock,
		updates:      make(chan update),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		lifetime:     lifetime,
		stop:         stop,
		subs:         make(map[int]chan Snapshot),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.format.printer == nil {
		m.format = NewFormatter("", "en")
	}
	initial := DefaultSnapshot(movieID)
	initial.UpdatedAt = m.now()
	m.current.Store(&initial)
	go m.run()
	return m
}

// MovieID returns the movie this model shows.
func (m *MovieContentModel) MovieID() int64 {
	return m.movieID
}

// Snapshot returns the latest published state.
func (m *MovieContentModel) Snapshot() Snapshot {
	return *m.current.Load()
}

// Subscribe returns a channel that receives the current snapshot immediately
// and the newest snapshot after each change. A slow reader skips intermediate
// snapshots. The channel is closed by cancel or Close.
func (m *MovieContentModel) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	m.subMu.Lock()
	select {
	case <-m.done:
		m.subMu.Unlock()
		ch <- m.Snapshot()
		close(ch)
		return ch, func() {}
	default:
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	ch <- m.Snapshot()
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			if sub, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(sub)
			}
		})
	}
}

// Start begins loading the movie content. Calling Start while a load is in
// flight is a no-op; calling it after a load finished fetches again.
func (m *MovieContentModel) Start(ctx context.Context) error {
	if m.isClosed() {
		return ErrClosed
	}
	m.infoMu.Lock()
	if m.loading {
		m.infoMu.Unlock()
		return nil
	}
	m.loading = true
	m.infoMu.Unlock()

	startGen := m.reloadGen.Load()
	if err := m.send(func(s Snapshot) Snapshot {
		s.State = StateLoading
		s.ShowActivityIndicator = true
		return s
	}); err != nil {
		m.setLoading(false)
		return err
	}

	workCtx, cancel := m.workContext(ctx)
	go func() {
		defer cancel()
		apply := m.fetch(workCtx, startGen)
		m.setLoading(false)
		if apply != nil {
			_ = m.send(apply)
		}
	}()
	return nil
}

// fetch loads content and returns the update that publishes it, or nil when
// the model was closed meanwhile.
func (m *MovieContentModel) fetch(ctx context.Context, startGen uint64) update {
	ctx = services.WithMovieID(services.WithOperation(ctx, "fetch_movie_content"), m.movieID)
	logger := logging.WithContext(ctx, m.logger)
	started := m.now()

	result, err := m.source.FetchMovieContent(ctx, m.movieID)
	if err != nil {
		if m.isClosed() {
			return nil
		}
		logging.WarnWithContext(logger, "movie content fetch failed", "movie_content_fetch_failed",
			logging.Error(err),
			logging.String("error_kind", services.Kind(err)),
			logging.String(logging.FieldErrorHint, "check TMDB connectivity and the API key"),
			logging.String(logging.FieldImpact, "movie screen shows an error state"))
		return func(s Snapshot) Snapshot { return s.withError(err) }
	}

	card := m.materializer.Materialize(ctx, result.Info, result.Card)
	info := result.Info
	m.infoMu.Lock()
	m.info = &info
	m.infoMu.Unlock()

	next := Snapshot{
		MovieID:         m.movieID,
		State:           StateLoaded,
		Info:            m.format.MovieInfo(result.Info),
		Credit:          m.format.Cast(result.Credit),
		ImageGallery:    m.format.Backdrops(result.ImageGallery),
		VideoGallery:    MovieVideos(result.VideoGallery),
		SimilarMovies:   m.format.Posters(result.SimilarMovieGallery),
		RecommendMovies: m.format.Posters(result.RecommendMovieGallery),
		Card:            MovieCard(card),
	}
	logger.Debug("movie content loaded",
		logging.Duration("elapsed", m.now().Sub(started)),
		logging.Bool("stored_card", result.Card != nil),
		logging.Bool("has_poster", card.HasPoster()))
	return func(s Snapshot) Snapshot {
		loaded := next
		if s.cardGen > startGen {
			// A reload that started after this fetch already produced a newer card.
			loaded.Card = s.Card
			loaded.cardGen = s.cardGen
		}
		return loaded
	}
}

// ReloadCard re-reads the stored card and re-materializes it against the
// movie seen by the last successful fetch, replacing only the card. It
// returns false without doing anything when no movie has been loaded yet.
// A newer ReloadCard cancels an older in-flight one, and only the newest
// reload may publish its card.
func (m *MovieContentModel) ReloadCard(ctx context.Context) bool {
	if m.isClosed() {
		return false
	}
	m.infoMu.Lock()
	info := m.info
	m.infoMu.Unlock()
	if info == nil {
		return false
	}

	m.reloadMu.Lock()
	if m.reloadCancel != nil {
		m.reloadCancel()
	}
	gen := m.reloadGen.Add(1)
	workCtx, cancel := m.workContext(ctx)
	m.reloadCancel = cancel
	m.reloadMu.Unlock()

	go func() {
		defer cancel()
		m.reload(workCtx, gen, *info)
	}()
	return true
}

func (m *MovieContentModel) reload(ctx context.Context, gen uint64, info content.MovieInfo) {
	ctx = services.WithMovieID(services.WithOperation(ctx, "reload_movie_card"), m.movieID)
	logger := logging.WithContext(ctx, m.logger)

	stored, err := m.source.ReloadMovieCard(ctx, m.movieID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(logger, "movie card reload failed", "movie_card_reload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the card store"),
			logging.String(logging.FieldImpact, "movie card keeps its previous contents"))
		return
	}
	if ctx.Err() != nil || m.reloadGen.Load() != gen {
		return
	}
	card := m.materializer.Materialize(ctx, info, stored)
	if ctx.Err() != nil {
		return
	}
	view := MovieCard(card)
	_ = m.send(func(s Snapshot) Snapshot {
		if m.reloadGen.Load() != gen || s.cardGen > gen {
			return s
		}
		s.Card = view
		s.cardGen = gen
		return s
	})
	logger.Debug("movie card reloaded", logging.Uint64("generation", gen), logging.Bool("stored_card", stored != nil))
}

// Wait blocks until the model reaches StateLoaded or StateFailed and
// returns that snapshot.
func (m *MovieContentModel) Wait(ctx context.Context) (Snapshot, error) {
	ch, cancel := m.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		case snap, ok := <-ch:
			if !ok {
				return m.Snapshot(), ErrClosed
			}
			if snap.State == StateLoaded || snap.State == StateFailed {
				return snap, nil
			}
		}
	}
}

// Close stops the update goroutine, cancels in-flight work and closes all
// subscriptions. It is safe to call more than once.
func (m *MovieContentModel) Close() {
	m.closeOnce.Do(func() {
		m.stop()
		close(m.done)
		<-m.stopped
		m.subMu.Lock()
		for id, ch := range m.subs {
			close(ch)
			delete(m.subs, id)
		}
		m.subMu.Unlock()
	})
}

func (m *MovieContentModel) run() {
	defer close(m.stopped)
	for {
		select {
		case <-m.done:
			return
		case fn := <-m.updates:
			prev := m.current.Load()
			next := fn(*prev)
			next.Version = prev.Version + 1
			next.UpdatedAt = m.now()
			m.current.Store(&next)
			m.publish(next)
		}
	}
}

func (m *MovieContentModel) publish(snap Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale undelivered snapshot with the newest one.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (m *MovieContentModel) send(fn update) error {
	select {
	case m.updates <- fn:
		return nil
	case <-m.done:
		return ErrClosed
	}
}

func (m *MovieContentModel) setLoading(v bool) {
	m.infoMu.Lock()
	m.loading = v
	m.infoMu.Unlock()
}

func (m *MovieContentModel) isClosed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// workContext derives a context canceled by either parent or Close.
func (m *MovieContentModel) workContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(m.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
