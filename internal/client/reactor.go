package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/domain/reaction"
	"golang.org/x/sync/errgroup"
)

// Reactor errors
var (
	ErrDebounced        = errors.New("client: reaction ignored, clicked again too quickly")
	ErrNotAuthenticated = errors.New("client: no session user")
	ErrClosed           = errors.New("client: reactor closed")
)

const (
	defaultMinInterval    = 300 * time.Millisecond
	defaultRequestTimeout = 10 * time.Second
)

// Config configures a Reactor
type Config struct {
	// UserID is the session user every reaction is sent as
	UserID string
	// MinInterval is the debounce window per post
	MinInterval time.Duration
	// RequestTimeout bounds each reaction request; a timeout is a failure
	RequestTimeout time.Duration
	// OnError receives genuine failures from the dispatch goroutine.
	// Cancelled requests are never reported.
	OnError func(postID string, err error)
	Logger  zerolog.Logger
}

// Reactor applies reactions optimistically to a Store and reconciles them
// with the server in the background.
type Reactor struct {
	api            API
	store          *Store
	userID         string
	minInterval    time.Duration
	requestTimeout time.Duration
	onError        func(postID string, err error)
	logger         zerolog.Logger
	now            func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	lastClick map[string]time.Time
}

// NewReactor creates a Reactor bound to parent; cancelling parent has the
// same effect as Close without waiting.
func NewReactor(parent context.Context, api API, store *Store, cfg Config) *Reactor {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithCancel(parent)
	return &Reactor{
		api:            api,
		store:          store,
		userID:         cfg.UserID,
		minInterval:    cfg.MinInterval,
		requestTimeout: cfg.RequestTimeout,
		onError:        cfg.OnError,
		logger:         cfg.Logger,
		now:            time.Now,
		ctx:            ctx,
		cancel:         cancel,
		lastClick:      make(map[string]time.Time),
	}
}

// State returns the cached state of a post for the session user
func (r *Reactor) State(postID string) (reaction.State, bool) {
	return r.store.Get(Key{UserID: r.userID, PostID: postID})
}

// React applies action to the cached state and returns the optimistic
// result immediately. The request runs in the background. A click within
// MinInterval of the previous click on the same post returns ErrDebounced
// together with the unchanged state.
func (r *Reactor) React(postID string, action reaction.Action) (reaction.State, error) {
	if r.userID == "" {
		return reaction.State{}, ErrNotAuthenticated
	}
	key := Key{UserID: r.userID, PostID: postID}

	r.mu.Lock()
	if r.closed || r.ctx.Err() != nil {
		r.mu.Unlock()
		return reaction.State{}, ErrClosed
	}
	now := r.now()
	if last, ok := r.lastClick[postID]; ok && now.Sub(last) < r.minInterval {
		r.mu.Unlock()
		current, _ := r.store.Get(key)
		return current, ErrDebounced
	}
	r.lastClick[postID] = now

	next, seq := r.store.apply(key, action)
	r.wg.Add(1)
	r.mu.Unlock()

	go r.dispatch(key, action, seq)
	return next, nil
}

func (r *Reactor) dispatch(key Key, action reaction.Action, seq uint64) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(r.ctx, r.requestTimeout)
	defer cancel()
	server, err := r.api.React(ctx, key.PostID, key.UserID, action.IsLike())

	r.mu.Lock()
	if r.closed || r.ctx.Err() != nil {
		r.mu.Unlock()
		r.logger.Debug().Str("postID", key.PostID).Msg("Reaction result discarded after cancellation")
		return
	}
	if err == nil {
		if !r.store.reconcile(key, seq, server) {
			r.logger.Debug().Str("postID", key.PostID).Uint64("seq", seq).Msg("Older reaction answer kept as baseline only")
		}
		r.mu.Unlock()
		return
	}
	rolledBack := r.store.rollback(key, seq)
	r.mu.Unlock()

	r.logger.Warn().Err(err).
		Str("postID", key.PostID).
		Str("action", action.String()).
		Bool("rolledBack", rolledBack).
		Msg("Reaction failed")
	if r.onError != nil {
		r.onError(key.PostID, err)
	}
}

// Wait blocks until every dispatched reaction has settled
func (r *Reactor) Wait() {
	r.wg.Wait()
}

// Close aborts in-flight requests and discards their results and errors.
// It is safe to call more than once.
func (r *Reactor) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}

// Load fetches a post and its comments concurrently and seeds the cache
// with the server's counters and the session user's disposition.
func (r *Reactor) Load(ctx context.Context, postID string) (*dto.PostResponse, []dto.CommentResponse, error) {
	var (
		post     *dto.PostResponse
		comments []dto.CommentResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.api.GetPost(gctx, postID)
		if err != nil {
			return fmt.Errorf("load post: %w", err)
		}
		post = p
		return nil
	})
	g.Go(func() error {
		c, err := r.api.ListComments(gctx, postID)
		if err != nil {
			return fmt.Errorf("load comments: %w", err)
		}
		comments = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if r.userID != "" {
		r.store.Seed(Key{UserID: r.userID, PostID: postID}, reaction.State{
			Counts:      reaction.Counts{Likes: post.Likes, Dislikes: post.Dislikes},
			Disposition: post.UserLike,
		})
	}
	return post, comments, nil
}
