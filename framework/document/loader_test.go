package document_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bootstrap/framework/document"
	"github.com/km-arc/go-bootstrap/framework/errs"
	"github.com/km-arc/go-bootstrap/framework/parsing"
	"github.com/km-arc/go-bootstrap/framework/xmlmode"
)

const schemaDoc = `<?xml version="1.0"?>
<beans xmlns="urn:km-arc:beans">
    <description>orders module</description>
    <bean id="orders" class="orders.Service">
        <property name="table" value="orders"/>
        <property name="dsn">postgres://localhost/orders</property>
    </bean>
    <bean id="audit" class="audit.Log" scope="prototype" lazy-init="true"/>
</beans>`

const dtdDoc = `<?xml version="1.0"?>
<!DOCTYPE beans PUBLIC "-//KM//DTD BEAN//EN" "beans.dtd">
<beans>
    <bean id="clock" class="time.Clock"/>
</beans>`

func load(t *testing.T, doc string, mode xmlmode.Mode, rep parsing.Reporter) (*document.Document, error) {
	t.Helper()
	return document.XMLLoader{}.Load(strings.NewReader(doc), mode, document.Options{
		Resource: "test [doc.xml]",
		Reporter: rep,
	})
}

func TestXMLLoader_SchemaDocument(t *testing.T) {
	doc, err := load(t, schemaDoc, xmlmode.XSD, nil)
	require.NoError(t, err)

	assert.Equal(t, "beans", doc.Root)
	assert.Equal(t, "urn:km-arc:beans", doc.Namespace)
	require.Len(t, doc.Definitions, 2)

	orders := doc.Definitions[0]
	assert.Equal(t, "orders", orders.ID)
	assert.Equal(t, "orders.Service", orders.Class)
	assert.Equal(t, "singleton", orders.Scope)
	assert.Equal(t, map[string]string{"table": "orders", "dsn": "postgres://localhost/orders"}, orders.Properties)
	assert.Equal(t, "test [doc.xml]", orders.Source)

	audit := doc.Definitions[1]
	assert.Equal(t, "prototype", audit.Scope)
	assert.True(t, audit.Lazy)
}

func TestXMLLoader_DTDDocument(t *testing.T) {
	doc, err := load(t, dtdDoc, xmlmode.DTD, nil)
	require.NoError(t, err)
	assert.Contains(t, doc.Doctype, "beans PUBLIC")
	assert.Len(t, doc.Definitions, 1)
}

func TestXMLLoader_DTDModeWithoutDoctypeFails(t *testing.T) {
	_, err := load(t, schemaDoc, xmlmode.DTD, nil)
	assert.True(t, errors.Is(err, errs.ErrParsing))
}

func TestXMLLoader_NoneModeSkipsChecks(t *testing.T) {
	var c parsing.Collector
	_, err := load(t, `<beans><bean id="a" class="A"/></beans>`, xmlmode.None, &c)
	require.NoError(t, err)
	assert.Empty(t, c.Problems)
}

func TestXMLLoader_MissingNamespaceIsWarning(t *testing.T) {
	var c parsing.Collector
	doc, err := load(t, `<beans><bean id="a" class="A"/></beans>`, xmlmode.XSD, &c)

	require.NoError(t, err)
	assert.Len(t, doc.Definitions, 1)
	require.Len(t, c.Problems, 1)
	assert.Equal(t, parsing.Warning, c.Problems[0].Severity)
}

func TestXMLLoader_Problems(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		severity parsing.Severity
	}{
		{"wrong root", `<config xmlns="urn:x"/>`, parsing.Fatal},
		{"no root", `<?xml version="1.0"?>`, parsing.Fatal},
		{"malformed", `<beans xmlns="urn:x"><bean id="a" class="A">`, parsing.Fatal},
		{"missing id", `<beans xmlns="urn:x"><bean class="A"/></beans>`, parsing.Error},
		{"missing class", `<beans xmlns="urn:x"><bean id="a"/></beans>`, parsing.Error},
		{"duplicate id", `<beans xmlns="urn:x"><bean id="a" class="A"/><bean id="a" class="B"/></beans>`, parsing.Error},
		{"bad scope", `<beans xmlns="urn:x"><bean id="a" class="A" scope="session"/></beans>`, parsing.Error},
		{"bad lazy", `<beans xmlns="urn:x"><bean id="a" class="A" lazy-init="maybe"/></beans>`, parsing.Error},
		{"unexpected element", `<beans xmlns="urn:x"><widget name="a"/></beans>`, parsing.Error},
		{"alias without target", `<beans xmlns="urn:x"><alias name="a"/></beans>`, parsing.Error},
		{"self alias", `<beans xmlns="urn:x"><alias name="a" alias="a"/></beans>`, parsing.Error},
		{"bad default lazy", `<beans xmlns="urn:x" default-lazy-init="often"/>`, parsing.Error},
		{"import", `<beans xmlns="urn:x"><import resource="other.xml"/></beans>`, parsing.Warning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c parsing.Collector
			_, _ = load(t, tt.doc, xmlmode.XSD, &c)
			require.NotEmpty(t, c.Problems)
			assert.Equal(t, tt.severity, c.Problems[0].Severity, c.Problems[0].Message)

			_, err := load(t, tt.doc, xmlmode.XSD, parsing.NewFailFastReporter(nil))
			if tt.severity == parsing.Warning {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, errs.ErrParsing), "fail-fast reporter must abort")
			}
		})
	}
}

// recorder keeps every reader event as a short string.
type recorder struct {
	document.EmptyListener
	events []string
}

func (r *recorder) DefaultsRegistered(d document.Defaults) {
	r.events = append(r.events, fmt.Sprintf("defaults lazy=%t", d.Lazy))
}

func (r *recorder) ComponentRegistered(def document.Definition) {
	r.events = append(r.events, "bean "+def.ID)
}

func (r *recorder) AliasRegistered(a document.Alias) {
	r.events = append(r.events, "alias "+a.Name+"->"+a.Alias)
}

func (r *recorder) ImportProcessed(resource, source string) {
	r.events = append(r.events, "import "+resource+" from "+source)
}

func TestXMLLoader_Events(t *testing.T) {
	const doc = `<beans xmlns="urn:km-arc:beans" default-lazy-init="true">
    <bean id="orders" class="orders.Service"/>
    <alias name="orders" alias="orderService"/>
    <import resource="billing.xml"/>
    <bean id="audit" class="audit.Log" lazy-init="false"/>
</beans>`

	rec := &recorder{}
	d, err := document.XMLLoader{}.Load(strings.NewReader(doc), xmlmode.XSD, document.Options{
		Resource: "test [doc.xml]",
		Listener: rec,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"defaults lazy=true",
		"bean orders",
		"alias orders->orderService",
		"import billing.xml from test [doc.xml]",
		"bean audit",
	}, rec.events)

	require.Len(t, d.Definitions, 2)
	assert.True(t, d.Definitions[0].Lazy, "inherits default-lazy-init")
	assert.False(t, d.Definitions[1].Lazy, "own lazy-init wins")
	assert.Equal(t, []document.Alias{{Name: "orders", Alias: "orderService", Source: "test [doc.xml]"}}, d.Aliases)
}

func TestXMLLoader_RejectedEntriesFireNoEvents(t *testing.T) {
	rec := &recorder{}
	var c parsing.Collector
	_, err := document.XMLLoader{}.Load(strings.NewReader(
		`<beans xmlns="urn:x"><bean class="A"/><alias name="a"/></beans>`), xmlmode.XSD,
		document.Options{Reporter: &c, Listener: rec})
	require.NoError(t, err)

	assert.Len(t, c.Problems, 2)
	assert.Equal(t, []string{"defaults lazy=false"}, rec.events)
}

func TestEmptyListener(t *testing.T) {
	var l document.EventListener = document.EmptyListener{}
	l.DefaultsRegistered(document.Defaults{})
	l.ComponentRegistered(document.Definition{ID: "a"})
	l.AliasRegistered(document.Alias{Name: "a", Alias: "b"})
	l.ImportProcessed("a.xml", "b.xml")
}
