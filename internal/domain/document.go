package domain

// Category enumerates the fixed set of help-request types.
type Category string

const (
	CategoryUltraWeeklies Category = "Ultra Weeklies"
	CategoryUltraSpeaker  Category = "Ultra Speaker"
	CategoryTempleShrine  Category = "Temple Shrine"
	CategoryUltraDailies  Category = "Ultra Dailies"
	CategorySpamming      Category = "Spamming"
	CategoryOthers        Category = "Others"
)

// Categories lists every valid category in panel order.
func Categories() []Category {
	return []Category{
		CategoryUltraWeeklies,
		CategoryUltraSpeaker,
		CategoryTempleShrine,
		CategoryUltraDailies,
		CategorySpamming,
		CategoryOthers,
	}
}

// IsValid reports whether c is one of the fixed categories.
func (c Category) IsValid() bool {
	for _, candidate := range Categories() {
		if c == candidate {
			return true
		}
	}
	return false
}

// Document is the single durable aggregate. It is loaded wholesale, mutated
// in memory and saved wholesale; there is no partial-update path.
type Document struct {
	HelperPoints           map[string]int      `json:"helperPoints"`
	ActiveTickets          map[string]*Ticket  `json:"activeTickets"`
	TicketCounter          int                 `json:"ticketCounter"`
	CategoryPoints         map[Category]int    `json:"categoryPoints"`
	TicketChannels         map[Category]string `json:"ticketChannels"`
	LogsChannel            string              `json:"logsChannel,omitempty"`
	AllowedCompletionRoles []string            `json:"allowedCompletionRoles"`
	AllowedCreationRoles   []string            `json:"allowedCreationRoles"`
}

// NewDocument returns a default-populated document for first use.
func NewDocument() *Document {
	doc := &Document{}
	doc.ApplyDefaults()
	return doc
}

// ApplyDefaults backfills missing top-level fields. Idempotent: applying it
// to an already-defaulted document changes nothing.
func (d *Document) ApplyDefaults() {
	if d.HelperPoints == nil {
		d.HelperPoints = map[string]int{}
	}
	if d.ActiveTickets == nil {
		d.ActiveTickets = map[string]*Ticket{}
	}
	if d.CategoryPoints == nil {
		d.CategoryPoints = map[Category]int{}
	}
	for _, category := range Categories() {
		if _, ok := d.CategoryPoints[category]; !ok {
			d.CategoryPoints[category] = 1
		}
	}
	if d.TicketChannels == nil {
		d.TicketChannels = map[Category]string{}
	}
	if d.AllowedCompletionRoles == nil {
		d.AllowedCompletionRoles = []string{}
	}
	if d.AllowedCreationRoles == nil {
		d.AllowedCreationRoles = []string{}
	}
}

// HasCompletionRole reports whether roleID is in the completion allow-list.
func (d *Document) HasCompletionRole(roleID string) bool {
	return containsRole(d.AllowedCompletionRoles, roleID)
}

// HasCreationRole reports whether roleID is in the creation allow-list.
func (d *Document) HasCreationRole(roleID string) bool {
	return containsRole(d.AllowedCreationRoles, roleID)
}

func containsRole(roles []string, roleID string) bool {
	for _, id := range roles {
		if id == roleID {
			return true
		}
	}
	return false
}
