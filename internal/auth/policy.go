package auth

// Operation is an action a caller may attempt on an owned resource.
type Operation string

const (
	OpRead          Operation = "read"
	OpWrite         Operation = "write"
	OpDelete        Operation = "delete"
	OpReassignOwner Operation = "reassign-owner"
)

// OwnerSentinel marks records created before ownership existed. Such
// legacy records are readable and writable by everyone but can only be
// deleted or reassigned by an admin.
const OwnerSentinel = ""

// Deny reasons. Stable strings: they end up in logs and error payloads.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonNotOwner        = "not_owner"
	ReasonAdminOnly       = "admin_only"
)

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r string) Decision { return Decision{Reason: r} }

// Decide is the single role-and-ownership decision function. It is pure:
// role plus ownership in, allow/deny out, no storage access. Every
// resource endpoint goes through it before any lookup result is exposed.
func Decide(actor *User, owner string, op Operation) Decision {
	if actor == nil {
		return deny(ReasonUnauthenticated)
	}
	if actor.IsAdmin() {
		return allow()
	}
	switch op {
	case OpRead, OpWrite:
		if owner == actor.Username || owner == OwnerSentinel {
			return allow()
		}
		return deny(ReasonNotOwner)
	case OpDelete:
		// Sentinel records are excluded: a non-owner must not be able
		// to destroy a legacy record.
		if owner != OwnerSentinel && owner == actor.Username {
			return allow()
		}
		return deny(ReasonNotOwner)
	case OpReassignOwner:
		return deny(ReasonAdminOnly)
	}
	return deny(ReasonAdminOnly)
}

// CanSee is the listing filter: the same predicate as a read decision.
func CanSee(actor *User, owner string) bool {
	return Decide(actor, owner, OpRead).Allowed
}
