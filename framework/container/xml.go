package container

import (
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-bootstrap/framework/document"
	"github.com/km-arc/go-bootstrap/framework/errs"
	"github.com/km-arc/go-bootstrap/framework/locations"
	"github.com/km-arc/go-bootstrap/framework/parsing"
	"github.com/km-arc/go-bootstrap/framework/resource"
	"github.com/km-arc/go-bootstrap/framework/xmlmode"
)

// DefinitionsTag groups every definition an XMLContainer loaded.
const DefinitionsTag = "definitions"

// Default locations of an XMLContainer.
const (
	DefaultConfigLocation       = "config/application.xml"
	DefaultConfigLocationPrefix = "config/"
	DefaultConfigLocationSuffix = ".xml"
)

// XMLContainer loads bean definitions from XML configuration locations on
// refresh. Definitions are bound as instances under their id; a location
// later in the list overrides an earlier one with the same id. Aliases are
// registered once every location is bound.
type XMLContainer struct {
	Base

	// Classpath backs "classpath:" locations. Optional.
	Classpath fs.FS
	// Loader parses documents. Defaults to document.XMLLoader.
	Loader document.Loader
	// ValidationMode forces a mode; Auto (the default) detects per document.
	ValidationMode xmlmode.Mode
	// Reporter receives parsing problems. Defaults to a fail-fast reporter.
	Reporter parsing.Reporter
	// Listener observes accepted defaults, beans, aliases and imports.
	Listener document.EventListener

	locations locations.Set

	mu          sync.RWMutex
	namespace   string
	definitions []document.Definition
}

// NewXMLContainer creates an XMLContainer in state Created.
func NewXMLContainer() *XMLContainer {
	x := &XMLContainer{
		Loader:         document.XMLLoader{},
		ValidationMode: xmlmode.Auto,
	}
	x.initBase(x, x.loadDefinitions, CapConfigurable, CapHosted, CapDocuments)
	x.locations.Resolver = x.Base.env
	x.locations.Defaults = x.defaultLocations
	return x
}

// SetNamespace changes the default location to config/<ns>.xml.
func (x *XMLContainer) SetNamespace(ns string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.namespace = ns
}

func (x *XMLContainer) SetConfigLocation(location string) error {
	return x.locations.SetLocation(location)
}

func (x *XMLContainer) SetConfigLocations(locs []string) error {
	return x.locations.SetLocations(locs)
}

func (x *XMLContainer) ConfigLocations() []string {
	return x.locations.Locations()
}

// Definitions returns the merged definitions of the last refresh, in first
// appearance order.
func (x *XMLContainer) Definitions() []document.Definition {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]document.Definition(nil), x.definitions...)
}

func (x *XMLContainer) defaultLocations() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.namespace != "" {
		return []string{DefaultConfigLocationPrefix + x.namespace + DefaultConfigLocationSuffix}
	}
	return []string{DefaultConfigLocation}
}

// loadDefinitions is the refresh step.
func (x *XMLContainer) loadDefinitions() error {
	loader := &resource.Loader{Classpath: x.Classpath}
	if h := x.Host(); h != nil {
		loader.Root = h.Root()
	}
	reporter := x.Reporter
	if reporter == nil {
		reporter = parsing.NewFailFastReporter(x.logger)
	}

	merged := make(map[string]int)
	var defs []document.Definition
	var aliases []document.Alias
	for _, loc := range x.ConfigLocations() {
		doc, err := x.loadLocation(loader, loc, reporter)
		if err != nil {
			return err
		}
		for _, def := range doc.Definitions {
			if i, ok := merged[def.ID]; ok {
				x.logger.Debug("overriding definition",
					zap.String("id", def.ID),
					zap.String("previous", defs[i].Source),
					zap.String("source", def.Source))
				defs[i] = def
				continue
			}
			merged[def.ID] = len(defs)
			defs = append(defs, def)
		}
		aliases = append(aliases, doc.Aliases...)
	}

	ids := make([]string, len(defs))
	for i, def := range defs {
		x.Instance(def.ID, def)
		ids[i] = def.ID
	}
	x.Tag(ids, DefinitionsTag)
	for _, a := range aliases {
		x.Alias(a.Name, a.Alias)
	}
	x.mu.Lock()
	x.definitions = defs
	x.mu.Unlock()
	x.logger.Info("loaded definitions", zap.String("id", x.ID()), zap.Int("count", len(defs)))
	return nil
}

func (x *XMLContainer) loadLocation(loader *resource.Loader, loc string, reporter parsing.Reporter) (*document.Document, error) {
	mode := x.ValidationMode
	if mode == xmlmode.Auto {
		res, rc, err := loader.Open(loc)
		if err != nil {
			return nil, err
		}
		if mode, err = xmlmode.Detect(rc); err != nil {
			return nil, errs.Wrap(errs.CodeConfigLoad, "container.refresh", err,
				"reading %s", res.Description())
		}
		if mode == xmlmode.Auto {
			// undecided: fall back to schema checks
			mode = xmlmode.XSD
		}
	}

	res, rc, err := loader.Open(loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	x.logger.Debug("loading definitions",
		zap.String("resource", res.Description()),
		zap.Stringer("mode", mode))
	return x.Loader.Load(rc, mode, document.Options{
		Resource: res.Description(),
		Reporter: reporter,
		Listener: x.Listener,
	})
}
