package pause

// OncePause coalesces repeated pause requests against a single Pausable
// target into at most one live token. Used wherever a composite must pause
// its upstream "because there is no downstream" (or similar aggregate
// conditions) without caring how many times the condition re-fires.
type OncePause struct {
	target Pausable
	token  Token
}

// NewOncePause wraps target, which may be nil (PauseOnce becomes a no-op
// until Retarget supplies a real target).
func NewOncePause(target Pausable) *OncePause {
	return &OncePause{target: target}
}

// PauseOnce acquires a token from the target if not already paused. Idempotent.
func (o *OncePause) PauseOnce() {
	if o.token == nil && o.target != nil {
		o.token = o.target.PauseFlow()
	}
}

// MaybeUnpause releases the held token, if any.
func (o *OncePause) MaybeUnpause() {
	if o.token != nil {
		o.token.Unpause()
		o.token = nil
	}
}

// Paused reports whether a token is currently held.
func (o *OncePause) Paused() bool {
	return o.token != nil
}

// Retarget switches the Pausable this OncePause acts on. If currently
// paused, the new target's token is captured before the old one is
// released, so the aggregate is never momentarily unpaused during hand-off.
func (o *OncePause) Retarget(target Pausable) {
	if o.token != nil {
		var next Token
		if target != nil {
			next = target.PauseFlow()
		}
		old := o.token
		o.token = next
		old.Unpause()
	}
	o.target = target
}
