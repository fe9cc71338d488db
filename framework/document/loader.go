// Package document reads bean-definition documents.
//
// A document is a <beans> root holding <bean> elements:
//
//	<beans xmlns="urn:km-arc:beans">
//	    <bean id="orders" class="orders.Service" scope="singleton">
//	        <property name="table" value="orders"/>
//	    </bean>
//	</beans>
//
// The loader checks structure according to the validation mode it is given
// and reports problems through a parsing.Reporter. An EventListener sees
// the defaults, beans, aliases and imports it accepts.
package document

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/km-arc/go-bootstrap/framework/parsing"
	"github.com/km-arc/go-bootstrap/framework/xmlmode"
)

// Element names understood by the loader.
const (
	RootElement        = "beans"
	BeanElement        = "bean"
	ImportElement      = "import"
	AliasElement       = "alias"
	DescriptionElement = "description"
)

// Definition is one <bean> entry.
type Definition struct {
	ID         string
	Class      string
	Scope      string // "singleton" (default) or "prototype"
	Lazy       bool
	Properties map[string]string
	Source     string // description of the resource it came from
}

// Document is the parsed form of one configuration location.
type Document struct {
	Root        string
	Namespace   string
	Doctype     string
	Mode        xmlmode.Mode
	Defaults    Defaults
	Definitions []Definition
	Aliases     []Alias
}

// Options for a single Load.
type Options struct {
	Resource string           // used in problem reports
	Reporter parsing.Reporter // nil → fail fast, warnings discarded
	Listener EventListener    // nil → EmptyListener
}

// Loader parses a document using an already detected validation mode.
type Loader interface {
	Load(r io.Reader, mode xmlmode.Mode, opts Options) (*Document, error)
}

// XMLLoader is the encoding/xml based Loader.
type XMLLoader struct{}

type rawProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type rawBean struct {
	ID         string        `xml:"id,attr"`
	Class      string        `xml:"class,attr"`
	Scope      string        `xml:"scope,attr"`
	Lazy       string        `xml:"lazy-init,attr"`
	Properties []rawProperty `xml:"property"`
}

// reader carries one Load call's state.
type reader struct {
	opts Options
	doc  *Document
	seen map[string]bool
}

// Load implements Loader.
func (XMLLoader) Load(r io.Reader, mode xmlmode.Mode, opts Options) (*Document, error) {
	if opts.Reporter == nil {
		opts.Reporter = parsing.NewFailFastReporter(nil)
	}
	if opts.Listener == nil {
		opts.Listener = EmptyListener{}
	}
	rd := &reader{opts: opts, doc: &Document{Mode: mode}, seen: make(map[string]bool)}
	dec := xml.NewDecoder(r)

	root, err := rd.prolog(dec)
	if err != nil {
		return nil, err
	}
	if err := rd.checkMode(); err != nil {
		return nil, err
	}
	if err := rd.defaults(root); err != nil {
		return nil, err
	}
	if err := rd.body(dec, root); err != nil {
		return nil, err
	}
	return rd.doc, nil
}

// prolog consumes tokens up to and including the root element.
func (rd *reader) prolog(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return xml.StartElement{}, rd.report(parsing.Fatal, "document has no root element", "", nil)
			}
			return xml.StartElement{}, rd.report(parsing.Fatal, "document is not well-formed", "", err)
		}
		switch t := tok.(type) {
		case xml.Directive:
			if d := string(t); strings.HasPrefix(d, "DOCTYPE") {
				rd.doc.Doctype = strings.TrimSpace(strings.TrimPrefix(d, "DOCTYPE"))
			}
		case xml.StartElement:
			rd.doc.Root = t.Name.Local
			rd.doc.Namespace = t.Name.Space
			if t.Name.Local != RootElement {
				return t, rd.report(parsing.Fatal, "root element must be <"+RootElement+">", t.Name.Local, nil)
			}
			return t, nil
		}
	}
}

func (rd *reader) checkMode() error {
	switch rd.doc.Mode {
	case xmlmode.DTD:
		if rd.doc.Doctype == "" {
			return rd.report(parsing.Error, "DTD validation requested but the document declares no DOCTYPE", "", nil)
		}
	case xmlmode.XSD:
		if rd.doc.Namespace == "" {
			return rd.report(parsing.Warning, "no namespace declared on root element; schema checks limited to structure", RootElement, nil)
		}
	}
	return nil
}

// defaults reads the root attributes that apply to every bean.
func (rd *reader) defaults(root xml.StartElement) error {
	d := Defaults{Resource: rd.opts.Resource}
	if v := attr(root, "default-lazy-init"); v != "" {
		lazy, err := strconv.ParseBool(v)
		if err != nil {
			if rerr := rd.report(parsing.Error, "default-lazy-init must be true or false", RootElement, err); rerr != nil {
				return rerr
			}
		}
		d.Lazy = lazy
	}
	rd.doc.Defaults = d
	rd.opts.Listener.DefaultsRegistered(d)
	return nil
}

func (rd *reader) body(dec *xml.Decoder, root xml.StartElement) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return rd.report(parsing.Fatal, "document is not well-formed", root.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := rd.element(dec, t); err != nil {
				return err
			}
		}
	}
}

func (rd *reader) element(dec *xml.Decoder, start xml.StartElement) error {
	switch start.Name.Local {
	case BeanElement:
		var raw rawBean
		if err := dec.DecodeElement(&raw, &start); err != nil {
			return rd.report(parsing.Fatal, "malformed bean element", raw.ID, err)
		}
		return rd.bean(raw)
	case ImportElement:
		resource := attr(start, "resource")
		if err := rd.report(parsing.Warning, "import elements are not supported; list the location in config-locations instead", resource, nil); err != nil {
			return err
		}
		rd.opts.Listener.ImportProcessed(resource, rd.opts.Resource)
		return dec.Skip()
	case AliasElement:
		if err := rd.alias(attr(start, "name"), attr(start, "alias")); err != nil {
			return err
		}
		return dec.Skip()
	case DescriptionElement:
		return dec.Skip()
	default:
		if err := rd.report(parsing.Error, "unexpected element <"+start.Name.Local+">", start.Name.Local, nil); err != nil {
			return err
		}
		return dec.Skip()
	}
}

func (rd *reader) bean(raw rawBean) error {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return rd.report(parsing.Error, "bean element requires an id", raw.Class, nil)
	}
	if strings.TrimSpace(raw.Class) == "" {
		if err := rd.report(parsing.Error, "bean element requires a class", id, nil); err != nil {
			return err
		}
	}
	if rd.seen[id] {
		if err := rd.report(parsing.Error, "bean id is already used in this document", id, nil); err != nil {
			return err
		}
	}
	rd.seen[id] = true

	def := Definition{
		ID:         id,
		Class:      strings.TrimSpace(raw.Class),
		Scope:      raw.Scope,
		Lazy:       rd.doc.Defaults.Lazy,
		Properties: make(map[string]string, len(raw.Properties)),
		Source:     rd.opts.Resource,
	}
	switch def.Scope {
	case "":
		def.Scope = "singleton"
	case "singleton", "prototype":
	default:
		if err := rd.report(parsing.Error, "unknown scope "+strconv.Quote(raw.Scope), id, nil); err != nil {
			return err
		}
	}
	if raw.Lazy != "" {
		lazy, err := strconv.ParseBool(raw.Lazy)
		if err != nil {
			if rerr := rd.report(parsing.Error, "lazy-init must be true or false", id, err); rerr != nil {
				return rerr
			}
		}
		def.Lazy = lazy
	}
	for _, p := range raw.Properties {
		if p.Name == "" {
			if err := rd.report(parsing.Error, "property requires a name", id, nil); err != nil {
				return err
			}
			continue
		}
		v := p.Value
		if v == "" {
			v = strings.TrimSpace(p.Text)
		}
		def.Properties[p.Name] = v
	}
	rd.doc.Definitions = append(rd.doc.Definitions, def)
	rd.opts.Listener.ComponentRegistered(def)
	return nil
}

func (rd *reader) alias(name, alias string) error {
	name, alias = strings.TrimSpace(name), strings.TrimSpace(alias)
	switch {
	case name == "" || alias == "":
		return rd.report(parsing.Error, "alias element requires name and alias", name, nil)
	case name == alias:
		return rd.report(parsing.Error, "alias "+strconv.Quote(alias)+" points to itself", name, nil)
	}
	a := Alias{Name: name, Alias: alias, Source: rd.opts.Resource}
	rd.doc.Aliases = append(rd.doc.Aliases, a)
	rd.opts.Listener.AliasRegistered(a)
	return nil
}

func (rd *reader) report(sev parsing.Severity, msg, element string, cause error) error {
	return rd.opts.Reporter.Report(parsing.Problem{
		Severity: sev,
		Message:  msg,
		Resource: rd.opts.Resource,
		Element:  element,
		Cause:    cause,
	})
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
