package login

// Presenter receives the outcome of a submission episode and performs the
// matching screen transition.
//
// OnFailed is called after controls have been re-enabled; the notification
// it shows must use c.Title and c.Message only, never c.Detail.
type Presenter interface {
	OnAuthenticated()
	OnFailed(c Classification)
}

// PresenterFuncs adapts a pair of functions to Presenter. Nil fields are no-ops.
type PresenterFuncs struct {
	Authenticated func()
	Failed        func(Classification)
}

func (p PresenterFuncs) OnAuthenticated() {
	if p.Authenticated != nil {
		p.Authenticated()
	}
}

func (p PresenterFuncs) OnFailed(c Classification) {
	if p.Failed != nil {
		p.Failed(c)
	}
}
