package supervisor

// StatusUpdate carries the fields of a node status change. Nil fields are
// unchanged.
type StatusUpdate struct {
	Health       *Health
	HealthReason *string
	Enabled      *bool
}

// Reporter receives node status notifications. All calls are
// fire-and-forget from the supervisor's point of view: implementations
// must not block, and their failures are never surfaced to the operation
// that triggered them. A nil Reporter on the supervisor disables
// reporting entirely.
type Reporter interface {
	RegisterNode(name string, health Health)
	UpdateNode(update StatusUpdate)
}
