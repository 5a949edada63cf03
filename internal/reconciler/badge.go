package reconciler

//go:generate mockgen -source=badge.go -destination=badge_mock.go -package=reconciler

// BadgeSetter is the host capability showing the unread-dose count. Injected
// so the reconciler runs without a live host environment.
type BadgeSetter interface {
	SetBadgeCount(n int)
	ClearBadge()
}

// NoopBadge is used where the host has no badge surface.
type NoopBadge struct{}

func (NoopBadge) SetBadgeCount(int) {}
func (NoopBadge) ClearBadge()       {}
