package login

// Overlay is the blocking activity indicator owned by the screen.
type Overlay interface {
	Show()
	Hide()
}

// Busy scopes one Overlay to at most one submission episode at a time.
// Misuse (double acquire, release without acquire) panics.
type Busy struct {
	overlay Overlay
	held    bool
}

// NewBusy wraps overlay. A nil overlay is allowed and only tracks state.
func NewBusy(overlay Overlay) *Busy {
	return &Busy{overlay: overlay}
}

// Acquire shows the overlay.
func (b *Busy) Acquire() {
	if b.held {
		panic("login: busy overlay acquired twice")
	}
	b.held = true
	if b.overlay != nil {
		b.overlay.Show()
	}
}

// Release hides the overlay.
func (b *Busy) Release() {
	if !b.held {
		panic("login: busy overlay released without acquire")
	}
	b.held = false
	if b.overlay != nil {
		b.overlay.Hide()
	}
}

// Held reports whether the overlay is currently shown.
func (b *Busy) Held() bool {
	return b.held
}
