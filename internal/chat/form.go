package chat

// EveryoneID is the overwrite subject standing for the whole community.
const EveryoneID = "everyone"

// FormField describes one input of a creation form.
type FormField struct {
	Label     string
	Multiline bool
	MaxLength int
}

// Form is a request to open a creation form for the actor.
type Form struct {
	Title  string
	Fields []FormField
}
