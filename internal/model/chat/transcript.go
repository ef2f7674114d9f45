package chat

// Transcript is the append-only, ordered log of a conversation. It is not
// safe for concurrent use; the owning orchestrator serializes access.
type Transcript struct {
	turns []Turn
}

// NewTranscript returns a transcript seeded with the given turns.
func NewTranscript(seed ...Turn) *Transcript {
	t := &Transcript{turns: make([]Turn, 0, 16)}
	t.turns = append(t.turns, seed...)
	return t
}

// Append adds a turn at the end. It never fails.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// Len returns the number of stored turns, system turns included.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of every stored turn in order.
func (t *Transcript) Turns() []Turn {
	return append([]Turn(nil), t.turns...)
}

// Visible returns the turns that are rendered to the user: everything
// except system-role turns.
func (t *Transcript) Visible() []Turn {
	visible := make([]Turn, 0, len(t.turns))
	for _, turn := range t.turns {
		if turn.Role == RoleSystem {
			continue
		}
		visible = append(visible, turn)
	}
	return visible
}

// Last returns the most recent turn, if any.
func (t *Transcript) Last() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}
