package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"trackify/internal/auth"
	"trackify/internal/core"
	applog "trackify/internal/log"
)

// fetchTimeout bounds a single repository cycle so a hung remote call
// cannot wedge the command loop forever.
const fetchTimeout = 7 * time.Second

type cmdKind int

const (
	cmdRefresh cmdKind = iota
	cmdAdd
	cmdDelete
	cmdRetry
)

type command struct {
	kind      cmdKind
	ctx       context.Context
	input     core.TransactionInput
	id        int64
	confirmed bool
	reply     chan error
}

// Controller is the per-session actor that serializes every ledger
// operation. Commands queue behind the in-flight one; session changes
// preempt by bumping the epoch so a stale fetch result is discarded when
// it finally lands.
type Controller struct {
	sessions *auth.Store
	repo     Repository
	events   Publisher // optional
	logger   *applog.Logger
	redirect func() // optional; signaled when re-authentication is required

	epoch atomic.Int64

	cmds    chan command
	stop    chan struct{}
	stopped chan struct{}

	mu      sync.Mutex
	vm      ViewModel
	subs    map[int]func(ViewModel)
	nextSub int

	unsubscribe func()
	closeOnce   sync.Once
}

// Config wires a controller's collaborators. Sessions and Repo are
// required; the rest may be nil.
type Config struct {
	Sessions *auth.Store
	Repo     Repository
	Events   Publisher
	Logger   *applog.Logger
	Redirect func()
}

// NewController builds and starts a controller in the idle state.
func NewController(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent("ledger")
	}
	c := &Controller{
		sessions: cfg.Sessions,
		repo:     cfg.Repo,
		events:   cfg.Events,
		logger:   logger,
		redirect: cfg.Redirect,
		cmds:     make(chan command, 16),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		vm:       ViewModel{State: StateIdle},
		subs:     make(map[int]func(ViewModel)),
	}
	c.unsubscribe = cfg.Sessions.Subscribe(c.onSessionChange)
	go c.run()
	return c
}

// Close stops the command loop and detaches from the session store.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.unsubscribe()
		close(c.stop)
		<-c.stopped
	})
}

// Snapshot returns the current view-model. The transaction slice is copied
// so callers cannot mutate the projection.
func (c *Controller) Snapshot() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	vm := c.vm
	vm.Transactions = append([]core.Transaction(nil), c.vm.Transactions...)
	return vm
}

// Subscribe registers a view-model observer. The returned function cancels
// the subscription.
func (c *Controller) Subscribe(fn func(ViewModel)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Refresh runs a full session-check + fetch + aggregate cycle.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.do(command{kind: cmdRefresh, ctx: ctx})
}

// Add validates and inserts a transaction, then re-fetches the full set so
// the projection is always store-derived, never locally patched.
func (c *Controller) Add(ctx context.Context, in core.TransactionInput) error {
	return c.do(command{kind: cmdAdd, ctx: ctx, input: in})
}

// Delete removes a transaction. The confirmed flag is the explicit yes/no
// gate: without it no store call is made.
func (c *Controller) Delete(ctx context.Context, id int64, confirmed bool) error {
	return c.do(command{kind: cmdDelete, ctx: ctx, id: id, confirmed: confirmed})
}

// Retry leaves the error state by re-running the fetch cycle.
func (c *Controller) Retry(ctx context.Context) error {
	return c.do(command{kind: cmdRetry, ctx: ctx})
}

func (c *Controller) do(cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case c.cmds <- cmd:
	case <-c.stop:
		return core.NewError(core.KindUnknown, "ledger controller closed")
	case <-cmd.ctx.Done():
		return core.WrapError(core.KindUnknown, "ledger busy", cmd.ctx.Err())
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-cmd.ctx.Done():
		// The command still executes in order; the caller just stopped
		// waiting for its outcome.
		return core.WrapError(core.KindUnknown, "ledger command abandoned", cmd.ctx.Err())
	}
}

func (c *Controller) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.stop:
			return
		case cmd := <-c.cmds:
			cmd.reply <- c.handle(cmd)
		}
	}
}

func (c *Controller) handle(cmd command) error {
	switch cmd.kind {
	case cmdRefresh:
		return c.refresh(cmd.ctx)
	case cmdAdd:
		return c.add(cmd.ctx, cmd.input)
	case cmdDelete:
		return c.delete(cmd.ctx, cmd.id, cmd.confirmed)
	case cmdRetry:
		return c.retry(cmd.ctx)
	default:
		return core.NewError(core.KindUnknown, "unknown ledger command")
	}
}

// onSessionChange runs on the session store's notification path, possibly
// while a fetch is in flight. Bumping the epoch first guarantees the
// in-flight result is discarded whatever else happens.
func (c *Controller) onSessionChange(ev auth.Event) {
	switch ev.Type {
	case auth.EventSignedOut:
		c.epoch.Add(1)
		// Clear synchronously: by the time Apply returns, no stale
		// projection survives.
		c.setState(ViewModel{State: StateIdle})
		c.signalRedirect()
		c.logger.Info("Session signed out, ledger cleared")
	case auth.EventSignedIn:
		c.epoch.Add(1)
		// Best-effort: if the queue is full a refresh is already pending.
		select {
		case c.cmds <- command{kind: cmdRefresh, ctx: context.Background(), reply: make(chan error, 1)}:
		default:
		}
	case auth.EventTokenRefreshed:
		// Same identity, fresher expiry; the projection stays valid.
	}
}

func (c *Controller) refresh(ctx context.Context) error {
	sess := c.sessions.Current()
	if !sess.Valid(time.Now()) {
		// Not an error banner: the redirect collaborator takes over while
		// the controller stays in loading.
		c.setState(ViewModel{State: StateLoading})
		c.signalRedirect()
		return core.NewError(core.KindUnauthenticated, "no valid session")
	}

	epoch := c.epoch.Load()
	c.setState(ViewModel{State: StateLoading})

	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	txs, err := c.repo.ListByUser(fctx, sess.UserID)

	if c.epoch.Load() != epoch {
		c.logger.InfoContext(ctx, "Discarding stale fetch result",
			"user_id", sess.UserID, "fetched", len(txs))
		return core.NewError(core.KindUnauthenticated, "session changed during fetch")
	}

	if err != nil {
		kind := core.KindOf(err)
		if kind == core.KindUnauthenticated {
			c.setState(ViewModel{State: StateLoading})
			c.signalRedirect()
			return err
		}
		c.logger.ErrorContext(ctx, "Transaction fetch failed", "error", err, "user_id", sess.UserID)
		c.setError(err)
		return err
	}

	c.setState(ViewModel{
		State:        StateReady,
		Transactions: txs,
		Summary:      core.Summarize(txs),
	})
	return nil
}

func (c *Controller) add(ctx context.Context, in core.TransactionInput) error {
	sess := c.sessions.Current()
	if !sess.Valid(time.Now()) {
		c.signalRedirect()
		return core.NewError(core.KindUnauthenticated, "no valid session")
	}
	if state := c.currentState(); state != StateReady {
		return core.Errorf(core.KindUnknown, "add rejected in state %q", state)
	}
	// Validation failures surface inline next to the form; the repository
	// is never called.
	if err := in.Validate(); err != nil {
		return err
	}

	mctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	tx, err := c.repo.Insert(mctx, sess.UserID, in)
	if err != nil {
		return c.mutationError(ctx, err)
	}

	c.publishRecorded(ctx, tx)
	return c.refresh(ctx)
}

func (c *Controller) delete(ctx context.Context, id int64, confirmed bool) error {
	sess := c.sessions.Current()
	if !sess.Valid(time.Now()) {
		c.signalRedirect()
		return core.NewError(core.KindUnauthenticated, "no valid session")
	}
	if state := c.currentState(); state != StateReady {
		return core.Errorf(core.KindUnknown, "delete rejected in state %q", state)
	}
	if !confirmed {
		return core.NewError(core.KindValidation, "deletion requires confirmation")
	}

	mctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	if err := c.repo.Delete(mctx, sess.UserID, id); err != nil {
		return c.mutationError(ctx, err)
	}

	c.publishDeleted(ctx, sess.UserID, id)
	return c.refresh(ctx)
}

func (c *Controller) retry(ctx context.Context) error {
	if state := c.currentState(); state != StateError {
		return core.Errorf(core.KindUnknown, "retry rejected in state %q", state)
	}
	return c.refresh(ctx)
}

// mutationError decides whether a failed mutation poisons the view. A
// missing or foreign target and validation rejections leave the projection
// untouched; store and unknown failures become the error state.
func (c *Controller) mutationError(ctx context.Context, err error) error {
	switch core.KindOf(err) {
	case core.KindNotFound, core.KindForbidden, core.KindValidation:
		return err
	case core.KindUnauthenticated:
		c.signalRedirect()
		return err
	default:
		c.logger.ErrorContext(ctx, "Ledger mutation failed", "error", err)
		c.setError(err)
		return err
	}
}

func (c *Controller) publishRecorded(ctx context.Context, tx core.Transaction) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishRecorded(ctx, tx); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish recorded event", "error", err, "id", tx.ID)
	}
}

func (c *Controller) publishDeleted(ctx context.Context, userID string, id int64) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishDeleted(ctx, userID, id); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish deleted event", "error", err, "id", id)
	}
}

func (c *Controller) currentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vm.State
}

func (c *Controller) setError(err error) {
	kind := core.KindOf(err)
	var retryable bool
	var ce *core.Error
	if e, ok := err.(*core.Error); ok {
		ce = e
	} else {
		ce = core.WrapError(kind, "ledger cycle failed", err)
	}
	retryable = ce.Retryable()
	c.setState(ViewModel{
		State:     StateError,
		ErrKind:   kind,
		ErrMsg:    ce.Msg,
		Retryable: retryable,
	})
}

func (c *Controller) setState(vm ViewModel) {
	c.mu.Lock()
	c.vm = vm
	listeners := make([]func(ViewModel), 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(vm)
	}
}

func (c *Controller) signalRedirect() {
	if c.redirect != nil {
		c.redirect()
	}
}
