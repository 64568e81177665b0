// Package authz is the role hierarchy engine: one pure decision function,
// no I/O, callable from tests without any store. Every admin mutation path
// must go through Authorize instead of comparing role numbers inline.
package authz

import (
	"errors"
	"fmt"

	"github.com/SundayYogurt/account_service/internal/domain"
)

type Operation string

const (
	OpCreate        Operation = "create"
	OpView          Operation = "view"
	OpUpdate        Operation = "update"
	OpDelete        Operation = "delete"
	OpResetPassword Operation = "reset_password"
	OpChangeRole    Operation = "change_role"
)

// Rule names carried in denials so callers and logs can tell which check
// failed without parsing the message.
const (
	RuleSelfModification = "self_modification"
	RuleInsufficientRank = "insufficient_rank"
	RuleRoleCeiling      = "role_ceiling"
	RuleAdminThreshold   = "admin_threshold"
	RuleUnknownOperation = "unknown_operation"
)

// Denial is an authorization failure. It names the violated rule; it never
// carries anything an attacker could use to enumerate accounts.
type Denial struct {
	Op      Operation
	Rule    string
	Message string
}

func (d *Denial) Error() string {
	return d.Message
}

// Check carries everything a decision needs. NewRole is read for create and
// change_role only.
type Check struct {
	ActorID    uint
	ActorRole  int
	TargetID   uint
	TargetRole int
	NewRole    int
}

// Authorize returns nil when op is allowed and a *Denial otherwise.
//
// Rules:
//   - create:                      new role must not exceed the actor's own
//   - update/delete/resetPassword: actor must strictly outrank the target
//   - change_role:                 strict outrank AND new role strictly below
//     the actor's own AND never on yourself
//   - delete:                      never on yourself, regardless of rank
//   - view:                        any actor at or above the admin threshold
func Authorize(op Operation, c Check) error {
	switch op {
	case OpCreate:
		if c.NewRole > c.ActorRole {
			return deny(op, RuleRoleCeiling, "requested role exceeds your own")
		}
		return nil

	case OpView:
		if c.ActorRole < domain.AdminThreshold {
			return deny(op, RuleAdminThreshold, "administrator role required")
		}
		return nil

	case OpUpdate, OpResetPassword:
		if c.ActorRole <= c.TargetRole {
			return deny(op, RuleInsufficientRank, "target has an equal or higher role")
		}
		return nil

	case OpDelete:
		if c.TargetID == c.ActorID {
			return deny(op, RuleSelfModification, "cannot delete your own account")
		}
		if c.ActorRole <= c.TargetRole {
			return deny(op, RuleInsufficientRank, "target has an equal or higher role")
		}
		return nil

	case OpChangeRole:
		if c.TargetID == c.ActorID {
			return deny(op, RuleSelfModification, "cannot change your own role")
		}
		if c.ActorRole <= c.TargetRole {
			return deny(op, RuleInsufficientRank, "target has an equal or higher role")
		}
		if c.NewRole >= c.ActorRole {
			return deny(op, RuleRoleCeiling, "new role must be below your own")
		}
		return nil
	}

	return deny(op, RuleUnknownOperation, fmt.Sprintf("unknown operation %q", op))
}

func deny(op Operation, rule, msg string) *Denial {
	return &Denial{Op: op, Rule: rule, Message: msg}
}

// IsDenial unwraps err into a *Denial if it is one.
func IsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
