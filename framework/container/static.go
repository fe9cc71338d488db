package container

// StaticContainer is configured entirely in code: it reads no
// configuration locations, and its refresh only marks it active.
// Initializers populate it.
type StaticContainer struct {
	Base
}

// NewStaticContainer creates a StaticContainer in state Created.
func NewStaticContainer() *StaticContainer {
	s := &StaticContainer{}
	s.initBase(s, nil, CapConfigurable, CapHosted)
	return s
}
