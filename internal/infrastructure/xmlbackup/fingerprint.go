package xmlbackup

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
)

// Fingerprint hash SHA-256 (hex) del contenido de un backup en forma canónica (C14N).
// Ignora fechaExportacion, la declaración XML y la sangría: dos exportaciones del mismo
// inventario producen la misma huella.
func Fingerprint(data []byte) (string, error) {
	doc, err := readDocument(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	root := doc.Root().Copy()
	root.RemoveAttr(attrExportedAt)

	out := etree.NewDocument()
	out.SetRoot(root)
	out.Indent(etree.NoIndent)
	raw, err := out.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("huella: %w", err)
	}

	canonical, err := canonicalize(raw)
	if err != nil {
		return "", fmt.Errorf("huella: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
