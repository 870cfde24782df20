// Package textenc decodifica entradas de texto (CSV, XML) a UTF-8.
package textenc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewReader devuelve un lector UTF-8 para input codificado en charset.
// Acepta UTF-8 (o vacío), ISO-8859-1/latin1 y windows-1252. En UTF-8 descarta el BOM inicial.
func NewReader(input io.Reader, charset string) (io.Reader, error) {
	switch normalize(charset) {
	case "", "utf8":
		return skipBOM(input), nil
	case "iso88591", "latin1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("charset no soportado: %s", charset)
}

// CharsetReader firma compatible con xml.Decoder.CharsetReader.
func CharsetReader(charset string, input io.Reader) (io.Reader, error) {
	return NewReader(input, charset)
}

// Supported indica si charset se puede decodificar.
func Supported(charset string) bool {
	_, err := NewReader(strings.NewReader(""), charset)
	return err == nil
}

func normalize(charset string) string {
	s := strings.ToLower(strings.TrimSpace(charset))
	s = strings.ReplaceAll(s, "-", "")
	return strings.ReplaceAll(s, "_", "")
}

func skipBOM(input io.Reader) io.Reader {
	br := bufio.NewReader(input)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
