package xmlbackup

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock/internal/domain"
	"github.com/jhoicas/inventario-stock/internal/domain/entity"
	"github.com/jhoicas/inventario-stock/pkg/textenc"
)

// Decode lee un documento de backup. No valida contra el XSD: se espera que el llamador
// lo haya hecho antes. Los errores de forma se devuelven como StructuralError.
func Decode(r io.Reader) (*entity.Snapshot, error) {
	doc, err := readDocument(r)
	if err != nil {
		return nil, err
	}
	return decodeDocument(doc)
}

// DecodeBytes igual que Decode sobre un buffer.
func DecodeBytes(data []byte) (*entity.Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

func readDocument(r io.Reader) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = textenc.CharsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &domain.StructuralError{Reason: fmt.Sprintf("XML mal formado: %v", err)}
	}
	if doc.Root() == nil {
		return nil, &domain.StructuralError{Reason: "XML sin elemento raíz"}
	}
	return doc, nil
}

func decodeDocument(doc *etree.Document) (*entity.Snapshot, error) {
	root := doc.Root()
	if root.Tag != elRoot || root.NamespaceURI() != Namespace {
		return nil, &domain.StructuralError{
			Reason: fmt.Sprintf("raíz inesperada {%s}%s", root.NamespaceURI(), root.Tag),
		}
	}
	version := root.SelectAttrValue(attrVersion, "")
	if version != Version {
		return nil, &domain.StructuralError{Reason: fmt.Sprintf("versión de backup no soportada: %q", version)}
	}
	exportedAt, err := ParseTime(root.SelectAttrValue(attrExportedAt, ""))
	if err != nil {
		return nil, &domain.StructuralError{Reason: attrExportedAt + ": " + err.Error()}
	}

	snap := &entity.Snapshot{ExportedAt: exportedAt, Version: version}
	for _, el := range items(root, elCategories, elCategory) {
		c, err := decodeCategory(el)
		if err != nil {
			return nil, err
		}
		snap.Categories = append(snap.Categories, c)
	}
	for _, el := range items(root, elProducts, elProduct) {
		p, err := decodeProduct(el)
		if err != nil {
			return nil, err
		}
		snap.Products = append(snap.Products, p)
	}
	for _, el := range items(root, elMovements, elMovement) {
		m, err := decodeMovement(el)
		if err != nil {
			return nil, err
		}
		snap.Movements = append(snap.Movements, m)
	}
	return snap, nil
}

// items hijos <item> de la sección <section> de root (vacío si la sección no está).
func items(root *etree.Element, section, item string) []*etree.Element {
	var out []*etree.Element
	for _, s := range root.ChildElements() {
		if s.Tag != section {
			continue
		}
		for _, el := range s.ChildElements() {
			if el.Tag == item {
				out = append(out, el)
			}
		}
	}
	return out
}

func decodeCategory(el *etree.Element) (*entity.Category, error) {
	f := fields{el: el, kind: elCategory}
	c := &entity.Category{
		ID:          f.int64(elCategoryID),
		Name:        f.text(elName),
		Description: f.optional(elDescription),
		CreatedAt:   f.time(elCreatedAt),
		UpdatedAt:   f.time(elModifiedAt),
	}
	return c, f.err
}

func decodeProduct(el *etree.Element) (*entity.Product, error) {
	f := fields{el: el, kind: elProduct}
	p := &entity.Product{
		ID:        f.int64(elProductID),
		Name:      f.text(elName),
		Category:  f.text(elCategory),
		Price:     f.decimal(elPrice),
		Stock:     f.int(elStock),
		CreatedAt: f.time(elCreatedAt),
		UpdatedAt: f.time(elModifiedAt),
	}
	return p, f.err
}

func decodeMovement(el *etree.Element) (*entity.StockMovement, error) {
	f := fields{el: el, kind: elMovement}
	m := &entity.StockMovement{
		ID:          f.int64(elMovementID),
		ProductID:   f.int64(elProductID),
		Type:        f.text(elType),
		Quantity:    f.int(elQuantity),
		StockBefore: f.int(elStockBefore),
		StockAfter:  f.int(elStockAfter),
		Reason:      f.optional(elReason),
		Date:        f.time(elDate),
		User:        f.text(elUser),
	}
	return m, f.err
}

// fields lee subelementos de un registro; se queda con el primer error.
type fields struct {
	el   *etree.Element
	kind string
	err  error
}

func (f *fields) fail(name, format string, args ...any) {
	if f.err == nil {
		f.err = &domain.StructuralError{
			Reason: fmt.Sprintf("%s/%s: %s", f.kind, name, fmt.Sprintf(format, args...)),
		}
	}
}

func (f *fields) child(name string) *etree.Element {
	for _, c := range f.el.ChildElements() {
		if c.Tag == name {
			return c
		}
	}
	return nil
}

func (f *fields) text(name string) string {
	c := f.child(name)
	if c == nil {
		f.fail(name, "falta el elemento")
		return ""
	}
	return strings.TrimSpace(c.Text())
}

func (f *fields) optional(name string) string {
	if c := f.child(name); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func (f *fields) int64(name string) int64 {
	s := f.text(name)
	if f.err != nil {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f.fail(name, "%q no es un entero", s)
	}
	return n
}

func (f *fields) int(name string) int {
	return int(f.int64(name))
}

func (f *fields) decimal(name string) decimal.Decimal {
	s := f.text(name)
	if f.err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		f.fail(name, "%q no es un decimal", s)
	}
	return d
}

func (f *fields) time(name string) time.Time {
	s := f.text(name)
	if f.err != nil {
		return time.Time{}
	}
	parsed, err := ParseTime(s)
	if err != nil {
		f.fail(name, "%v", err)
	}
	return parsed
}
