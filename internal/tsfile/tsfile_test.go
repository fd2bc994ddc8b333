package tsfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "tscat/internal/errors"
)

const sampleDocument = `<?xml version="1.0" ?><!DOCTYPE TS><TS version="2.1" language="fi">
<context>
    <name>BluetoothTransDialog</name>
    <message>
        <location filename="../bluetooth/bluetoothtransdialog.cpp" line="61"/>
        <source>%1/%2 Sent</source>
        <translation>%1/%2 lähetetty</translation>
    </message>
    <message>
        <location filename="../bluetooth/bluetoothtransdialog.cpp" line="70"/>
        <location filename="../bluetooth/bluetoothtransdialog.cpp" line="+4"/>
        <source>Retry</source>
        <comment>button</comment>
        <translation>Yritä uudelleen</translation>
    </message>
</context>
<context>
    <name>QObject</name>
    <message>
        <source>Hide built-in disks</source>
        <translation type="unfinished"/>
    </message>
    <message numerus="yes">
        <source>%n item(s)</source>
        <translation>
            <numerusform>%n kohde</numerusform>
            <numerusform>%n kohdetta</numerusform>
        </translation>
    </message>
</context>
</TS>
`

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "2.1", doc.Version)
	assert.Equal(t, "fi", doc.Language)
	require.Len(t, doc.Contexts, 2)

	bluetooth := doc.Contexts[0]
	assert.Equal(t, "BluetoothTransDialog", bluetooth.ContextName())
	require.Len(t, bluetooth.Messages, 2)
	assert.Equal(t, "%1/%2 Sent", bluetooth.Messages[0].SourceText())
	assert.Equal(t, "%1/%2 lähetetty", bluetooth.Messages[0].Translation.Text)
	assert.Equal(t, "button", bluetooth.Messages[1].Comment)
	assert.Equal(t, []Location{
		{Filename: "../bluetooth/bluetoothtransdialog.cpp", Line: "70"},
		{Filename: "../bluetooth/bluetoothtransdialog.cpp", Line: "+4"},
	}, bluetooth.Messages[1].Locations)

	object := doc.Contexts[1]
	assert.Equal(t, TypeUnfinished, object.Messages[0].Translation.Type)
	assert.Empty(t, object.Messages[0].Translation.Text)
	assert.True(t, object.Messages[1].IsNumerus())
	assert.Equal(t, []string{"%n kohde", "%n kohdetta"}, object.Messages[1].Translation.NumerusForms)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{"not well formed", `<TS><context><name>A</name>`, tserrors.ErrMalformedDocument},
		{"wrong root", `<xliff version="1.2"></xliff>`, tserrors.ErrMalformedDocument},
		{"empty input", ``, tserrors.ErrMalformedDocument},
		{"missing source", `<TS><context><name>A</name><message><translation>x</translation></message></context></TS>`, tserrors.ErrMissingSource},
		{"trailing unterminated tag", `<TS><context><name>A</name><message><source>a</source></message></context></TS><oops`, tserrors.ErrMalformedDocument},
		{"trailing element", `<TS></TS><context><name>B</name></context>`, tserrors.ErrMalformedDocument},
		{"trailing text", `<TS></TS> leftover`, tserrors.ErrMalformedDocument},
		{"two documents", "<?xml version=\"1.0\"?><TS language=\"fi\"></TS>\n<?xml version=\"1.0\"?><TS language=\"pt\"></TS>", tserrors.ErrMalformedDocument},
		{"missing context name", `<TS><context><message><source>a</source></message></context></TS>`, tserrors.ErrMissingContextName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode(strings.NewReader(tt.input))
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestDecode_TrailingMiscIsAllowed(t *testing.T) {
	doc, err := Decode(strings.NewReader("<TS language=\"fi\"></TS>\n<!-- generated -->\n"))
	require.NoError(t, err)
	assert.Equal(t, "fi", doc.Language)
}

func TestDecode_EmptySourceIsAllowed(t *testing.T) {
	doc, err := Decode(strings.NewReader(`<TS><context><name>A</name><message><source></source><translation>x</translation></message></context></TS>`))
	require.NoError(t, err)
	require.NotNil(t, doc.Contexts[0].Messages[0].Source)
	assert.Equal(t, "", doc.Contexts[0].Messages[0].SourceText())
}

func TestDecode_Latin1Charset(t *testing.T) {
	// "Concluído" with 0xED for í in ISO-8859-1.
	input := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><TS language=\"pt\"><context><name>DFMTaskWidget</name><message><source>Done</source><translation>Conclu\xeddo</translation></message></context></TS>")
	doc, err := Decode(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "Concluído", doc.Contexts[0].Messages[0].Translation.Text)
}

func TestEncode_RoundTrip(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	doc.Contexts[1].Messages[1].Translation.Text = ""

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.True(t, strings.HasPrefix(buf.String(), "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<!DOCTYPE TS>\n<TS"))

	again, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, doc.Language, again.Language)
	require.Len(t, again.Contexts, len(doc.Contexts))
	for i := range doc.Contexts {
		require.Len(t, again.Contexts[i].Messages, len(doc.Contexts[i].Messages))
		for j, message := range doc.Contexts[i].Messages {
			got := again.Contexts[i].Messages[j]
			assert.Equal(t, message.SourceText(), got.SourceText())
			assert.Equal(t, message.Comment, got.Comment)
			assert.Equal(t, message.Translation.Type, got.Translation.Type)
			assert.Equal(t, message.Translation.NumerusForms, got.Translation.NumerusForms)
			if !message.IsNumerus() {
				assert.Equal(t, message.Translation.Text, got.Translation.Text)
			}
		}
	}
}

func TestEncode_NilDocument(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Encode(&buf, nil), tserrors.ErrMalformedDocument)
}
