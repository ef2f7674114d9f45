package booking

import (
	"context"
	"strings"
)

// StartListening marks voice capture as active. Capture cannot start while a
// reply is pending.
func (o *Orchestrator) StartListening() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.acceptLocked(); err != nil {
		return err
	}
	if o.listening {
		return ErrAlreadyListening
	}

	o.listening = true
	o.notifyLocked()
	return nil
}

// FinishListening ends capture with the recognised text and submits it as a
// typed message. Blank text counts as no input: capture is cleared and the
// returned channel is already closed.
func (o *Orchestrator) FinishListening(ctx context.Context, text string) (<-chan struct{}, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.listening {
		return nil, ErrNotListening
	}
	o.listening = false

	text = strings.TrimSpace(text)
	if text == "" {
		o.notifyLocked()
		return settled(), nil
	}

	if err := o.acceptLocked(); err != nil {
		o.notifyLocked()
		return nil, err
	}
	return o.dispatchLocked(ctx, text, "voice"), nil
}

// CancelListening clears capture state after an error or an end without a
// result. Reports whether capture was active.
func (o *Orchestrator) CancelListening() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.listening {
		return false
	}
	o.listening = false
	o.notifyLocked()
	return true
}

func settled() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
