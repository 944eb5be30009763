// Package policy holds the authorization rules for friendship and group
// membership transitions. Both state machines are encoded as explicit
// transition tables (action -> required status, authorized actor, next
// status) so the two near-identical lifecycles cannot drift apart. The
// package is pure: it never touches storage and decides only from the
// records it is handed.
package policy

// Action names a requested state transition.
type Action string

const (
	ActionRequest           Action = "request"
	ActionAccept            Action = "accept"
	ActionDecline           Action = "decline"
	ActionCancel            Action = "cancel"
	ActionRemove            Action = "remove"
	ActionInvite            Action = "invite"
	ActionKick              Action = "kick"
	ActionLeave             Action = "leave"
	ActionTransferOwnership Action = "transfer_ownership"
)
