package xmlbackup

import (
	"bytes"
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

//go:embed schema/inventario.xsd
var embeddedSchema []byte

// EmbeddedSchema copia del XSD del formato de backup.
func EmbeddedSchema() []byte {
	return slices.Clone(embeddedSchema)
}

// maxProblems corta la validación de documentos muy dañados.
const maxProblems = 50

// Validator valida documentos contra un Schema compilado. Es seguro para uso concurrente.
type Validator struct {
	schema *Schema
}

// NewValidator compila xsd.
func NewValidator(xsd []byte) (*Validator, error) {
	s, err := CompileSchema(xsd)
	if err != nil {
		return nil, err
	}
	return &Validator{schema: s}, nil
}

var defaultValidator = sync.OnceValues(func() (*Validator, error) {
	return NewValidator(embeddedSchema)
})

// DefaultValidator validador del XSD embebido.
func DefaultValidator() *Validator {
	v, err := defaultValidator()
	if err != nil {
		panic(fmt.Sprintf("xmlbackup: XSD embebido inválido: %v", err))
	}
	return v
}

// LoadValidator lee el XSD de path; con path vacío usa el embebido.
func LoadValidator(path string) (*Validator, error) {
	if path == "" {
		return DefaultValidator(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer esquema: %w", err)
	}
	return NewValidator(data)
}

// ValidateBytes parsea y valida; un documento mal formado es un problema más, no un error.
func (v *Validator) ValidateBytes(data []byte) []string {
	doc, err := readDocument(bytes.NewReader(data))
	if err != nil {
		return []string{err.Error()}
	}
	return v.Validate(doc)
}

// Validate devuelve los problemas encontrados; vacío si el documento es válido.
func (v *Validator) Validate(doc *etree.Document) []string {
	root := doc.Root()
	if root == nil {
		return []string{"XML sin elemento raíz"}
	}
	r := &run{schema: v.schema}
	decl, ok := v.schema.elements[root.Tag]
	if !ok || root.NamespaceURI() != v.schema.targetNS {
		return []string{fmt.Sprintf("/%s: elemento raíz no declarado en el esquema", root.Tag)}
	}
	r.element(root, decl, "/"+root.Tag)
	return r.problems
}

type run struct {
	schema   *Schema
	problems []string
	stopped  bool
}

func (r *run) addf(path, format string, args ...any) {
	if r.stopped {
		return
	}
	if len(r.problems) == maxProblems {
		r.problems = append(r.problems, "demasiados errores, validación detenida")
		r.stopped = true
		return
	}
	r.problems = append(r.problems, path+": "+fmt.Sprintf(format, args...))
}

func (r *run) namespaceFor(decl *elementDecl) string {
	if decl.global || r.schema.qualified {
		return r.schema.targetNS
	}
	return ""
}

func (r *run) element(el *etree.Element, decl *elementDecl, path string) {
	if r.stopped {
		return
	}
	if decl.simple != nil {
		if len(el.ChildElements()) > 0 {
			r.addf(path, "no admite elementos hijos")
			return
		}
		r.unexpectedAttrs(el, nil, path)
		if msg := decl.simple.check(el.Text()); msg != "" {
			r.addf(path, "%s", msg)
		}
		return
	}

	ct := decl.complex
	r.unexpectedAttrs(el, ct.attrs, path)
	for _, a := range ct.attrs {
		value, ok := attrValue(el, a.name)
		if !ok {
			if a.required {
				r.addf(path, "falta el atributo obligatorio %s", a.name)
			}
			continue
		}
		if msg := a.simple.check(value); msg != "" {
			r.addf(path+"/@"+a.name, "%s", msg)
		}
	}
	if strings.TrimSpace(directText(el)) != "" {
		r.addf(path, "no admite contenido de texto")
	}

	children := el.ChildElements()
	i := 0
	for _, d := range ct.sequence {
		n := 0
		for i < len(children) && (d.max < 0 || n < d.max) && r.matches(children[i], d) {
			n++
			childPath := path + "/" + d.name
			if d.max != 1 {
				childPath += "[" + strconv.Itoa(n) + "]"
			}
			r.element(children[i], d, childPath)
			i++
		}
		if n < d.min {
			r.addf(path, "falta el elemento %s", d.name)
		}
	}
	for ; i < len(children); i++ {
		r.addf(path, "elemento inesperado %s", children[i].Tag)
	}
}

func (r *run) matches(el *etree.Element, decl *elementDecl) bool {
	return el.Tag == decl.name && el.NamespaceURI() == r.namespaceFor(decl)
}

// unexpectedAttrs señala atributos no declarados (xmlns y xsi:* se ignoran).
func (r *run) unexpectedAttrs(el *etree.Element, declared []*attributeDecl, path string) {
	for _, a := range el.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") || a.NamespaceURI() == "http://www.w3.org/2001/XMLSchema-instance" {
			continue
		}
		known := a.Space == "" && slices.ContainsFunc(declared, func(d *attributeDecl) bool { return d.name == a.Key })
		if !known {
			r.addf(path, "atributo no permitido %s", a.FullKey())
		}
	}
}

func attrValue(el *etree.Element, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Space == "" && a.Key == name {
			return a.Value, true
		}
	}
	return "", false
}

// directText concatena el texto que cuelga directamente de el (no el de sus hijos).
func directText(el *etree.Element) string {
	var b strings.Builder
	for _, tok := range el.Child {
		if cd, ok := tok.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}

var builtins = map[string]bool{
	"string": true, "normalizedString": true, "token": true, "boolean": true,
	"decimal": true, "integer": true, "int": true, "long": true, "short": true,
	"positiveInteger": true, "nonNegativeInteger": true,
	"dateTime": true, "date": true,
}

func builtinType(name string) (*simpleType, error) {
	if !builtins[name] {
		return nil, fmt.Errorf("xsd: tipo xs:%s no soportado", name)
	}
	return newSimpleType("", name, nil), nil
}

func isNumeric(builtin string) bool {
	switch builtin {
	case "decimal", "integer", "int", "long", "short", "positiveInteger", "nonNegativeInteger":
		return true
	}
	return false
}

var (
	decimalRe  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	integerRe  = regexp.MustCompile(`^[+-]?\d+$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)
)

var intRanges = map[string][2]int64{
	"int":   {-1 << 31, 1<<31 - 1},
	"short": {-1 << 15, 1<<15 - 1},
}

// check devuelve el problema del valor o "" si es válido.
func (st *simpleType) check(raw string) string {
	value := raw
	if st.builtin != "string" {
		value = strings.Join(strings.Fields(raw), " ")
	}
	if msg := checkBuiltin(st.builtin, value); msg != "" {
		return msg
	}
	for t := st; t != nil; t = t.parent {
		if msg := t.checkFacets(value); msg != "" {
			return msg
		}
	}
	return ""
}

func checkBuiltin(builtin, value string) string {
	switch builtin {
	case "boolean":
		if value != "true" && value != "false" && value != "1" && value != "0" {
			return fmt.Sprintf("valor %q no es xs:boolean", value)
		}
	case "decimal":
		if !decimalRe.MatchString(value) {
			return fmt.Sprintf("valor %q no es xs:decimal", value)
		}
	case "integer", "int", "long", "short", "positiveInteger", "nonNegativeInteger":
		if !integerRe.MatchString(value) {
			return fmt.Sprintf("valor %q no es xs:%s", value, builtin)
		}
		n, ok := new(big.Int).SetString(strings.TrimPrefix(value, "+"), 10)
		if !ok {
			return fmt.Sprintf("valor %q no es xs:%s", value, builtin)
		}
		switch builtin {
		case "positiveInteger":
			if n.Sign() <= 0 {
				return fmt.Sprintf("valor %q debe ser mayor que 0", value)
			}
		case "nonNegativeInteger":
			if n.Sign() < 0 {
				return fmt.Sprintf("valor %q no puede ser negativo", value)
			}
		case "long":
			if !n.IsInt64() {
				return fmt.Sprintf("valor %q fuera de rango para xs:long", value)
			}
		case "int", "short":
			rng := intRanges[builtin]
			if !n.IsInt64() || n.Int64() < rng[0] || n.Int64() > rng[1] {
				return fmt.Sprintf("valor %q fuera de rango para xs:%s", value, builtin)
			}
		}
	case "dateTime":
		if !dateTimeRe.MatchString(value) {
			return fmt.Sprintf("valor %q no es xs:dateTime", value)
		}
		if _, err := ParseTime(value); err != nil {
			return fmt.Sprintf("valor %q no es xs:dateTime", value)
		}
	case "date":
		if !dateRe.MatchString(value) {
			return fmt.Sprintf("valor %q no es xs:date", value)
		}
		if _, err := time.Parse("2006-01-02", value[:10]); err != nil {
			return fmt.Sprintf("valor %q no es xs:date", value)
		}
	}
	return ""
}

func (st *simpleType) checkFacets(value string) string {
	if len(st.enums) > 0 && !slices.Contains(st.enums, value) {
		return fmt.Sprintf("valor %q no está entre los permitidos (%s)", value, strings.Join(st.enums, ", "))
	}
	for _, re := range st.patterns {
		if !re.MatchString(value) {
			return fmt.Sprintf("valor %q no cumple el patrón %s", value, re.String())
		}
	}

	length := utf8.RuneCountInString(value)
	if st.length >= 0 && length != st.length {
		return fmt.Sprintf("longitud %d distinta de %d", length, st.length)
	}
	if st.minLength >= 0 && length < st.minLength {
		return fmt.Sprintf("longitud %d menor que el mínimo %d", length, st.minLength)
	}
	if st.maxLength >= 0 && length > st.maxLength {
		return fmt.Sprintf("longitud %d mayor que el máximo %d", length, st.maxLength)
	}

	if !isNumeric(st.builtin) {
		return ""
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Sprintf("valor %q no es numérico", value)
	}
	switch {
	case st.minInclusive != nil && d.LessThan(*st.minInclusive):
		return fmt.Sprintf("valor %s menor que el mínimo %s", value, st.minInclusive)
	case st.maxInclusive != nil && d.GreaterThan(*st.maxInclusive):
		return fmt.Sprintf("valor %s mayor que el máximo %s", value, st.maxInclusive)
	case st.minExclusive != nil && d.LessThanOrEqual(*st.minExclusive):
		return fmt.Sprintf("valor %s debe ser mayor que %s", value, st.minExclusive)
	case st.maxExclusive != nil && d.GreaterThanOrEqual(*st.maxExclusive):
		return fmt.Sprintf("valor %s debe ser menor que %s", value, st.maxExclusive)
	}
	total, fraction := digits(value)
	if st.totalDigits >= 0 && total > st.totalDigits {
		return fmt.Sprintf("valor %s supera %d dígitos", value, st.totalDigits)
	}
	if st.fractionDigits >= 0 && fraction > st.fractionDigits {
		return fmt.Sprintf("valor %s supera %d decimales", value, st.fractionDigits)
	}
	return ""
}

// digits cuenta dígitos significativos totales y fraccionarios de un literal decimal.
func digits(value string) (total, fraction int) {
	value = strings.TrimLeft(value, "+-")
	intPart, fracPart, _ := strings.Cut(value, ".")
	intPart = strings.TrimLeft(intPart, "0")
	fracPart = strings.TrimRight(fracPart, "0")
	return len(intPart) + len(fracPart), len(fracPart)
}
