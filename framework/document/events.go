package document

// Defaults are the document-wide settings declared on the root element.
type Defaults struct {
	Lazy     bool   // default-lazy-init
	Resource string // description of the resource they came from
}

// Alias is one <alias name="..." alias="..."/> entry.
type Alias struct {
	Name   string
	Alias  string
	Source string
}

// EventListener observes what a Load registers, in document order. Events
// fire only for entries that were accepted.
type EventListener interface {
	DefaultsRegistered(d Defaults)
	ComponentRegistered(def Definition)
	AliasRegistered(a Alias)
	ImportProcessed(resource, source string)
}

// EmptyListener ignores every event. Embed it to handle only some.
type EmptyListener struct{}

func (EmptyListener) DefaultsRegistered(Defaults)    {}
func (EmptyListener) ComponentRegistered(Definition) {}
func (EmptyListener) AliasRegistered(Alias)          {}
func (EmptyListener) ImportProcessed(string, string) {}
