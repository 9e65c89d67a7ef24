package session

import "tutoring-service/internal/user"

var allStatuses = []Status{StatusPending, StatusApproved, StatusRejected}

// AllowedSources returns the statuses from which actor may move a session to target.
// An empty result means the move is not allowed at all.
//
// Admins may set any valid status from any status. Tutors may only send a rejected
// session back to pending, and only for sessions they own; ownership is checked by
// the caller's update filter.
func AllowedSources(target Status, actor user.Role) []Status {
	if !target.Valid() {
		return nil
	}

	switch actor {
	case user.RoleAdmin:
		return allStatuses
	case user.RoleTutor:
		if target == StatusPending {
			return []Status{StatusRejected}
		}
	}
	return nil
}
