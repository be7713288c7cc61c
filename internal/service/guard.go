package service

import "github.com/msomdec/marquee/internal/domain"

// RequireAuthenticated runs action only for a logged-in actor. A nil actor
// is anonymous.
func RequireAuthenticated[T any](actor *domain.User, action func() (T, error)) (T, error) {
	if actor == nil {
		var zero T
		return zero, domain.ErrNotAuthenticated
	}
	return action()
}

// RequireAdmin runs action only for an admin. Anonymous and reader actors
// get the same ErrNotAdmin, and action is never invoked for them.
func RequireAdmin[T any](actor *domain.User, action func() (T, error)) (T, error) {
	if !actor.IsAdmin() {
		var zero T
		return zero, domain.ErrNotAdmin
	}
	return action()
}
