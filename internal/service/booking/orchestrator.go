package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/analysis/intent"
	"github.com/travelai/booking-chat/backend/internal/model/booking"
	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/observability"
)

var (
	ErrBusy                = errors.New("a reply is still pending")
	ErrEmptyMessage        = errors.New("message content is required")
	ErrOfferNotFound       = errors.New("offer not found")
	ErrPaymentNotRequested = errors.New("payment has not been requested")
	ErrNotListening        = errors.New("voice capture is not active")
	ErrAlreadyListening    = errors.New("voice capture is already active")
	ErrClosed              = errors.New("session is closed")
)

// DefaultTimeout bounds a single generation request.
const DefaultTimeout = 30 * time.Second

// Completer produces the next assistant utterance for a transcript.
type Completer interface {
	Complete(ctx context.Context, turns []chat.Turn) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, turns []chat.Turn) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, turns []chat.Turn) (string, error) {
	return f(ctx, turns)
}

// RenderState is a point-in-time snapshot of everything a client draws.
type RenderState struct {
	SessionID       string              `json:"sessionId"`
	Messages        []chat.Turn         `json:"messages"`
	Stage           booking.Stage       `json:"stage"`
	Options         booking.OptionSet   `json:"options"`
	Flights         []offer.FlightOffer `json:"flights,omitempty"`
	Hotels          []offer.HotelOffer  `json:"hotels,omitempty"`
	SelectedOfferID string              `json:"selectedOfferId,omitempty"`
	Language        chat.Language       `json:"language"`
	Busy            bool                `json:"busy"`
	Listening       bool                `json:"listening"`
	Error           string              `json:"error,omitempty"`
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout bounds each generation request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = observability.OrNop(logger)
	}
}

// WithClassifier replaces the keyword classifier.
func WithClassifier(classify func(string) booking.Signal) Option {
	return func(o *Orchestrator) {
		if classify != nil {
			o.classify = classify
		}
	}
}

// Orchestrator owns one booking conversation. All mutations of the transcript
// and booking state happen under mu; the generation call is the only work done
// outside it.
type Orchestrator struct {
	mu sync.Mutex

	session    chat.Session
	transcript *chat.Transcript
	state      booking.State
	selectedID string
	busy       bool
	listening  bool
	lastErr    string
	closed     bool

	// seq identifies the in-flight request; a completion carrying any other
	// value is stale.
	seq  uint64
	done chan struct{}

	subscribers map[int]chan RenderState
	nextSubID   int

	catalog   offer.Catalog
	completer Completer
	classify  func(string) booking.Signal
	timeout   time.Duration
	logger    *zap.Logger
}

// NewOrchestrator opens a conversation with the welcome message for the
// session language.
func NewOrchestrator(session chat.Session, catalog offer.Catalog, completer Completer, opts ...Option) *Orchestrator {
	if session.Language == "" {
		session.Language = chat.Primary
	}

	o := &Orchestrator{
		session:     session,
		transcript:  chat.NewTranscript(chat.NewTurn(chat.RoleAssistant, session.Language.Welcome())),
		state:       booking.Initial(),
		subscribers: make(map[int]chan RenderState),
		catalog:     catalog,
		completer:   completer,
		classify:    intent.Classify,
		timeout:     DefaultTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(zap.String("session", session.ID))
	return o
}

// Session returns the session metadata with the current language.
func (o *Orchestrator) Session() chat.Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Send submits typed (or voice-captured) text. The returned channel is closed
// once the turn settles.
func (o *Orchestrator) Send(ctx context.Context, content string) (<-chan struct{}, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.acceptLocked(); err != nil {
		return nil, err
	}
	return o.dispatchLocked(ctx, content, "typed"), nil
}

// SelectOffer records the picked offer, moves to the details stage and sends
// the synthetic selection message.
func (o *Orchestrator) SelectOffer(ctx context.Context, kind offer.Kind, id string) (<-chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.acceptLocked(); err != nil {
		return nil, err
	}

	picked, ok := o.catalog.Find(kind, id)
	if !ok {
		o.logger.Warn("selected offer not in catalog", zap.String("kind", string(kind)), zap.String("offer", id))
		return nil, ErrOfferNotFound
	}

	o.selectedID = picked.OfferID()
	o.state = o.state.OfferSelected()
	return o.dispatchLocked(ctx, SelectionMessage(picked), "selection"), nil
}

// CompletePayment confirms the booking and tells the assistant about it.
func (o *Orchestrator) CompletePayment(ctx context.Context) (<-chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.acceptLocked(); err != nil {
		return nil, err
	}
	if !o.state.AwaitingPayment() {
		return nil, ErrPaymentNotRequested
	}

	o.state = o.state.PaymentCompleted()
	return o.dispatchLocked(ctx, PaymentMessage(), "payment"), nil
}

// SwitchLanguage toggles the session language and asks the assistant to
// follow.
func (o *Orchestrator) SwitchLanguage(ctx context.Context) (<-chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.acceptLocked(); err != nil {
		return nil, err
	}

	o.session.Language = o.session.Language.Toggle()
	return o.dispatchLocked(ctx, LanguageSwitchMessage(o.session.Language), "language"), nil
}

// Stop clears the busy flag without cancelling the in-flight request; its
// result is discarded when it arrives. Reports whether anything was pending.
func (o *Orchestrator) Stop() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.busy {
		return false
	}

	o.logger.Info("pending reply abandoned", zap.Uint64("seq", o.seq))
	o.settleLocked()
	o.notifyLocked()
	return true
}

// Busy reports whether a reply is pending.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// State returns the current render-state snapshot.
func (o *Orchestrator) State() RenderState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe delivers render-state snapshots, starting with the current one.
// Slow readers only ever see the latest snapshot. The returned function
// unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe() (<-chan RenderState, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan RenderState, 1)
	if o.closed {
		close(ch)
		return ch, func() {}
	}

	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = ch
	ch <- o.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if sub, ok := o.subscribers[id]; ok {
				delete(o.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close ends the conversation: pending work is abandoned and subscribers are
// released.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	if o.busy {
		o.settleLocked()
	}
	o.listening = false
	for id, ch := range o.subscribers {
		delete(o.subscribers, id)
		close(ch)
	}
}

func (o *Orchestrator) acceptLocked() error {
	if o.closed {
		return ErrClosed
	}
	if o.busy {
		return ErrBusy
	}
	return nil
}

// dispatchLocked appends the outbound user turn, hides the active widget and
// starts the generation request.
func (o *Orchestrator) dispatchLocked(ctx context.Context, content, kind string) <-chan struct{} {
	o.transcript.Append(chat.NewTurn(chat.RoleUser, content))
	o.state = o.state.ClearOptions()
	o.lastErr = ""
	o.busy = true
	o.seq++
	o.done = make(chan struct{})

	seq := o.seq
	done := o.done
	turns := o.transcript.Visible()

	o.logger.Debug("turn dispatched",
		zap.String("kind", kind),
		zap.Uint64("seq", seq),
		zap.Int("turns", len(turns)))

	go o.run(context.WithoutCancel(ctx), seq, turns)

	o.notifyLocked()
	return done
}

func (o *Orchestrator) run(ctx context.Context, seq uint64, turns []chat.Turn) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	reply, err := o.completer.Complete(ctx, turns)
	o.finish(seq, reply, err)
}

func (o *Orchestrator) finish(seq uint64, reply string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if seq != o.seq || !o.busy {
		o.logger.Info("dropped late completion", zap.Uint64("seq", seq), zap.Uint64("current", o.seq))
		return
	}

	if err != nil {
		o.lastErr = err.Error()
		o.logger.Warn("completion failed", zap.Uint64("seq", seq), zap.Error(err))
	} else {
		o.transcript.Append(chat.NewTurn(chat.RoleAssistant, reply))
		signal := o.classify(reply)
		o.state = o.state.Apply(signal)
		o.logger.Debug("completion applied",
			zap.Uint64("seq", seq),
			zap.String("signal", string(signal)),
			zap.String("stage", string(o.state.Stage)),
			zap.String("options", string(o.state.Options)))
	}

	o.settleLocked()
	o.notifyLocked()
}

func (o *Orchestrator) settleLocked() {
	o.busy = false
	if o.done != nil {
		close(o.done)
		o.done = nil
	}
}

func (o *Orchestrator) snapshotLocked() RenderState {
	rs := RenderState{
		SessionID:       o.session.ID,
		Messages:        o.transcript.Visible(),
		Stage:           o.state.Stage,
		Options:         o.state.Options,
		SelectedOfferID: o.selectedID,
		Language:        o.session.Language,
		Busy:            o.busy,
		Listening:       o.listening,
		Error:           o.lastErr,
	}

	switch o.state.Options {
	case booking.OptionsFlights:
		rs.Flights = o.catalog.Flights()
	case booking.OptionsHotels:
		rs.Hotels = o.catalog.Hotels()
	}
	return rs
}

func (o *Orchestrator) notifyLocked() {
	if len(o.subscribers) == 0 {
		return
	}
	snapshot := o.snapshotLocked()
	for _, ch := range o.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}
