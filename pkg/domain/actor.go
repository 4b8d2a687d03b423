package domain

// Actor is the authenticated staff identity driving an operation. It is
// passed explicitly into every search and pickup call rather than resolved
// from ambient state, keeping the timing-sensitive paths free of hidden
// lookups. Roles gate access to operations; they never feed the
// child-specific authorization decision, which is governed solely by
// AuthorizedPickupEntry levels.
type Actor struct {
	ID    ActorID
	Name  string
	Roles []string
}

// IsAuthenticated reports whether the actor carries a real identity.
func (a Actor) IsAuthenticated() bool {
	return !a.ID.IsZero()
}

// HasRole reports whether the actor carries the named role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
