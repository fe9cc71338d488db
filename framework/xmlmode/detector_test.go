package xmlmode_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/km-arc/go-bootstrap/framework/xmlmode"
)

// trackingReader records Close so every exit path can be checked.
type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

func stream(s string) *trackingReader {
	return &trackingReader{Reader: strings.NewReader(s)}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want xmlmode.Mode
	}{
		{
			name: "doctype first",
			doc:  "<?xml version=\"1.0\"?>\n<!DOCTYPE beans PUBLIC \"-//KM//DTD BEAN//EN\" \"beans.dtd\">\n<beans/>\n",
			want: xmlmode.DTD,
		},
		{
			name: "element without doctype",
			doc:  "<?xml version=\"1.0\"?>\n<beans xmlns=\"urn:km:beans\">\n</beans>\n",
			want: xmlmode.XSD,
		},
		{
			name: "unterminated comment opener",
			doc:  "<!--",
			want: xmlmode.XSD,
		},
		{
			name: "comment spanning three lines then doctype",
			doc:  "<!-- first\nsecond <beans>\nthird -->\n<!DOCTYPE beans>\n<beans/>",
			want: xmlmode.DTD,
		},
		{
			name: "stray comment close before doctype",
			doc:  "--> <!DOCTYPE beans>\n<beans/>",
			want: xmlmode.DTD,
		},
		{
			name: "stray comment close before element",
			doc:  "x --> <beans>\n",
			want: xmlmode.XSD,
		},
		{
			name: "doctype inside comment is ignored",
			doc:  "<!-- <!DOCTYPE beans> -->\n<beans/>\n",
			want: xmlmode.XSD,
		},
		{
			name: "several spans on one line before doctype",
			doc:  "<!-- a --> <!-- b --> <!DOCTYPE beans>\n",
			want: xmlmode.DTD,
		},
		{
			name: "element before trailing comment",
			doc:  "<beans> <!-- open\n<!DOCTYPE beans>\n-->\n",
			want: xmlmode.XSD,
		},
		{
			name: "comment closes and reopens across lines",
			doc:  "<!-- one\n--> <!-- two\n<!DOCTYPE nope>\n-->\n<!DOCTYPE beans>",
			want: xmlmode.DTD,
		},
		{
			name: "blank lines only",
			doc:  "\n\n   \n",
			want: xmlmode.XSD,
		},
		{
			name: "empty stream",
			doc:  "",
			want: xmlmode.XSD,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := stream(tt.doc)
			got, err := xmlmode.Detect(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, r.closed, "stream must be closed")
		})
	}
}

func TestDetect_InvalidEncodingIsAuto(t *testing.T) {
	r := &trackingReader{Reader: strings.NewReader("<!-- \xff\xfe broken -->\n<beans/>\n")}

	got, err := xmlmode.Detect(r)

	require.NoError(t, err)
	assert.Equal(t, xmlmode.Auto, got)
	assert.True(t, r.closed)
}

func TestDetect_ReadErrorIsReturned(t *testing.T) {
	boom := errors.New("disk gone")
	r := &trackingReader{Reader: io.MultiReader(strings.NewReader("<!-- x\n"), &failingReader{err: boom})}

	_, err := xmlmode.Detect(r)

	assert.ErrorIs(t, err, boom)
	assert.True(t, r.closed)
}

func TestDetector_DecodesConfiguredEncoding(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	raw, err := enc.NewEncoder().String("<!DOCTYPE beans>\n<beans/>\n")
	require.NoError(t, err)

	d := &xmlmode.Detector{Encoding: enc}
	got, err := d.Detect(stream(raw))

	require.NoError(t, err)
	assert.Equal(t, xmlmode.DTD, got)
}

func TestDetector_ResetsStateBetweenScans(t *testing.T) {
	var d xmlmode.Detector

	first, err := d.Detect(stream("<!-- never closed\n"))
	require.NoError(t, err)
	assert.Equal(t, xmlmode.XSD, first)

	second, err := d.Detect(stream("<!DOCTYPE beans>\n"))
	require.NoError(t, err)
	assert.Equal(t, xmlmode.DTD, second)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "dtd", xmlmode.DTD.String())
	assert.Equal(t, "auto", xmlmode.Auto.String())
}

type failingReader struct{ err error }

func (f *failingReader) Read([]byte) (int, error) { return 0, f.err }
