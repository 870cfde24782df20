package textenc_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock/pkg/textenc"
)

func readAll(t *testing.T, input, charset string) string {
	t.Helper()
	r, err := textenc.NewReader(strings.NewReader(input), charset)
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestNewReader_UTF8QuitaBOM(t *testing.T) {
	assert.Equal(t, "id_producto,cantidad", readAll(t, "\ufeffid_producto,cantidad", "UTF-8"))
	assert.Equal(t, "sin bom", readAll(t, "sin bom", ""))
}

func TestNewReader_Latin1(t *testing.T) {
	// "Electrónica" en ISO-8859-1: ó = 0xF3
	assert.Equal(t, "Electrónica", readAll(t, "Electr\xf3nica", "ISO-8859-1"))
	assert.Equal(t, "Electrónica", readAll(t, "Electr\xf3nica", "latin1"))
}

func TestNewReader_Windows1252(t *testing.T) {
	// 0x80 es el euro en windows-1252
	assert.Equal(t, "10€", readAll(t, "10\x80", "windows-1252"))
}

func TestNewReader_CharsetDesconocido(t *testing.T) {
	_, err := textenc.NewReader(strings.NewReader(""), "EBCDIC")
	assert.Error(t, err)
	assert.False(t, textenc.Supported("EBCDIC"))
	assert.True(t, textenc.Supported("utf-8"))
}
