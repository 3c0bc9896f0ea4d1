package gate

import "github.com/spec-kit/helpdesk-bot/internal/domain"

// Member is an actor with their already-resolved role set.
type Member struct {
	UserID        string
	RoleIDs       []string
	Administrator bool
}

// Capabilities is the member's resolved capability set for one operation.
// Resolve it once per actor per operation instead of re-scanning raw role
// collections at each check site.
type Capabilities struct {
	CanCreate   bool
	CanComplete bool
}

// Resolve computes the member's capabilities against the document's
// allow-lists. Creation is unrestricted while the creation allow-list is
// empty; completion always requires administrator or a listed role.
func Resolve(member Member, doc *domain.Document) Capabilities {
	caps := Capabilities{
		CanCreate:   len(doc.AllowedCreationRoles) == 0,
		CanComplete: member.Administrator,
	}
	for _, roleID := range member.RoleIDs {
		if doc.HasCreationRole(roleID) {
			caps.CanCreate = true
		}
		if doc.HasCompletionRole(roleID) {
			caps.CanComplete = true
		}
	}
	return caps
}

// CanCreate reports whether the member may create tickets.
func CanCreate(member Member, doc *domain.Document) bool {
	return Resolve(member, doc).CanCreate
}

// CanComplete reports whether the member may finalize tickets.
func CanComplete(member Member, doc *domain.Document) bool {
	return Resolve(member, doc).CanComplete
}

// CanCancel reports whether the member may cancel the given ticket: the
// creator, an administrator, or a completion-role holder.
func CanCancel(member Member, ticket *domain.Ticket, doc *domain.Document) bool {
	if ticket != nil && member.UserID == ticket.UserID {
		return true
	}
	return Resolve(member, doc).CanComplete
}
