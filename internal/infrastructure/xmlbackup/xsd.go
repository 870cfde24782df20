package xmlbackup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// xsdNamespace espacio de nombres de XML Schema.
const xsdNamespace = "http://www.w3.org/2001/XMLSchema"

// Schema subconjunto compilado de XML Schema: elementos globales, tipos complejos con
// xs:sequence y atributos, tipos simples por restricción con facetas.
// Cualquier otra construcción hace fallar la compilación.
type Schema struct {
	targetNS  string
	qualified bool
	elements  map[string]*elementDecl
}

type elementDecl struct {
	name    string
	global  bool
	min     int
	max     int // -1 = unbounded
	complex *complexType
	simple  *simpleType
}

type complexType struct {
	name     string
	sequence []*elementDecl
	attrs    []*attributeDecl
}

type attributeDecl struct {
	name     string
	required bool
	simple   *simpleType
}

type simpleType struct {
	name    string
	builtin string // tipo xs:* al final de la cadena de restricciones
	parent  *simpleType

	enums          []string
	patterns       []*regexp.Regexp
	length         int
	minLength      int
	maxLength      int
	totalDigits    int
	fractionDigits int
	minInclusive   *decimal.Decimal
	maxInclusive   *decimal.Decimal
	minExclusive   *decimal.Decimal
	maxExclusive   *decimal.Decimal
}

func newSimpleType(name, builtin string, parent *simpleType) *simpleType {
	return &simpleType{
		name: name, builtin: builtin, parent: parent,
		length: -1, minLength: -1, maxLength: -1, totalDigits: -1, fractionDigits: -1,
	}
}

// CompileSchema interpreta un XSD.
func CompileSchema(data []byte) (*Schema, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("xsd: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "schema" || root.NamespaceURI() != xsdNamespace {
		return nil, fmt.Errorf("xsd: la raíz no es xs:schema")
	}

	c := &schemaCompiler{
		schema: &Schema{
			targetNS:  root.SelectAttrValue("targetNamespace", ""),
			qualified: root.SelectAttrValue("elementFormDefault", "unqualified") == "qualified",
			elements:  map[string]*elementDecl{},
		},
		complexEls: map[string]*etree.Element{},
		simpleEls:  map[string]*etree.Element{},
		complex:    map[string]*complexType{},
		simple:     map[string]*simpleType{},
		globalEls:  map[string]*etree.Element{},
	}

	for _, el := range root.ChildElements() {
		name := el.SelectAttrValue("name", "")
		switch el.Tag {
		case "complexType":
			c.complexEls[name] = el
		case "simpleType":
			c.simpleEls[name] = el
		case "element":
			c.globalEls[name] = el
		case "annotation":
		default:
			return nil, unsupported(el)
		}
	}
	for name, el := range c.globalEls {
		if _, done := c.schema.elements[name]; done {
			continue
		}
		decl, err := c.element(el, true)
		if err != nil {
			return nil, err
		}
		c.schema.elements[name] = decl
	}
	if len(c.schema.elements) == 0 {
		return nil, fmt.Errorf("xsd: no declara ningún elemento global")
	}
	return c.schema, nil
}

type schemaCompiler struct {
	schema     *Schema
	complexEls map[string]*etree.Element
	simpleEls  map[string]*etree.Element
	globalEls  map[string]*etree.Element
	complex    map[string]*complexType
	simple     map[string]*simpleType
}

func unsupported(el *etree.Element) error {
	return fmt.Errorf("xsd: construcción no soportada: %s", el.FullTag())
}

func (c *schemaCompiler) element(el *etree.Element, global bool) (*elementDecl, error) {
	if ref := el.SelectAttrValue("ref", ""); ref != "" {
		_, local, err := c.qname(el, ref)
		if err != nil {
			return nil, err
		}
		decl, ok := c.schema.elements[local]
		if !ok {
			target, found := c.globalEls[local]
			if !found {
				return nil, fmt.Errorf("xsd: elemento %q no declarado", ref)
			}
			if decl, err = c.element(target, true); err != nil {
				return nil, err
			}
			c.schema.elements[local] = decl
		}
		cp := *decl
		if err := c.occurs(el, &cp); err != nil {
			return nil, err
		}
		return &cp, nil
	}

	decl := &elementDecl{name: el.SelectAttrValue("name", ""), global: global, min: 1, max: 1}
	if decl.name == "" {
		return nil, fmt.Errorf("xsd: elemento sin nombre")
	}
	if !global {
		if err := c.occurs(el, decl); err != nil {
			return nil, err
		}
	}

	if typ := el.SelectAttrValue("type", ""); typ != "" {
		ns, local, err := c.qname(el, typ)
		if err != nil {
			return nil, err
		}
		if ns == xsdNamespace {
			decl.simple, err = builtinType(local)
			return decl, err
		}
		if _, ok := c.complexEls[local]; ok {
			decl.complex, err = c.complexType(local, c.complexEls[local])
			return decl, err
		}
		decl.simple, err = c.namedSimple(local)
		return decl, err
	}

	for _, child := range el.ChildElements() {
		var err error
		switch child.Tag {
		case "complexType":
			decl.complex, err = c.complexType("", child)
		case "simpleType":
			decl.simple, err = c.simpleType("", child)
		case "annotation":
		default:
			err = unsupported(child)
		}
		if err != nil {
			return nil, err
		}
	}
	if decl.complex == nil && decl.simple == nil {
		decl.simple = newSimpleType("", "string", nil)
	}
	return decl, nil
}

func (c *schemaCompiler) occurs(el *etree.Element, decl *elementDecl) error {
	if v := el.SelectAttrValue("minOccurs", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("xsd: minOccurs inválido %q", v)
		}
		decl.min = n
	}
	if v := el.SelectAttrValue("maxOccurs", ""); v != "" {
		if v == "unbounded" {
			decl.max = -1
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("xsd: maxOccurs inválido %q", v)
		}
		decl.max = n
	}
	return nil
}

func (c *schemaCompiler) complexType(name string, el *etree.Element) (*complexType, error) {
	if name != "" {
		if ct, ok := c.complex[name]; ok {
			return ct, nil
		}
	}
	ct := &complexType{name: name}
	if name != "" {
		// registrado antes de recorrer los hijos: admite tipos recursivos
		c.complex[name] = ct
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "sequence":
			for _, item := range child.ChildElements() {
				if item.Tag == "annotation" {
					continue
				}
				if item.Tag != "element" {
					return nil, unsupported(item)
				}
				decl, err := c.element(item, false)
				if err != nil {
					return nil, err
				}
				ct.sequence = append(ct.sequence, decl)
			}
		case "attribute":
			attr, err := c.attribute(child)
			if err != nil {
				return nil, err
			}
			ct.attrs = append(ct.attrs, attr)
		case "annotation":
		default:
			return nil, unsupported(child)
		}
	}
	return ct, nil
}

func (c *schemaCompiler) attribute(el *etree.Element) (*attributeDecl, error) {
	attr := &attributeDecl{
		name:     el.SelectAttrValue("name", ""),
		required: el.SelectAttrValue("use", "optional") == "required",
	}
	if attr.name == "" {
		return nil, fmt.Errorf("xsd: atributo sin nombre")
	}
	if typ := el.SelectAttrValue("type", ""); typ != "" {
		ns, local, err := c.qname(el, typ)
		if err != nil {
			return nil, err
		}
		if ns == xsdNamespace {
			attr.simple, err = builtinType(local)
		} else {
			attr.simple, err = c.namedSimple(local)
		}
		return attr, err
	}
	if st := el.SelectElement("simpleType"); st != nil {
		var err error
		attr.simple, err = c.simpleType("", st)
		return attr, err
	}
	attr.simple = newSimpleType("", "string", nil)
	return attr, nil
}

func (c *schemaCompiler) namedSimple(name string) (*simpleType, error) {
	if st, ok := c.simple[name]; ok {
		return st, nil
	}
	el, ok := c.simpleEls[name]
	if !ok {
		return nil, fmt.Errorf("xsd: tipo %q no declarado", name)
	}
	return c.simpleType(name, el)
}

func (c *schemaCompiler) simpleType(name string, el *etree.Element) (*simpleType, error) {
	restriction := el.SelectElement("restriction")
	if restriction == nil {
		return nil, fmt.Errorf("xsd: tipo simple %q sin xs:restriction", name)
	}
	ns, local, err := c.qname(restriction, restriction.SelectAttrValue("base", ""))
	if err != nil {
		return nil, err
	}
	var st *simpleType
	if ns == xsdNamespace {
		if _, err := builtinType(local); err != nil {
			return nil, err
		}
		st = newSimpleType(name, local, nil)
	} else {
		parent, err := c.namedSimple(local)
		if err != nil {
			return nil, err
		}
		st = newSimpleType(name, parent.builtin, parent)
	}

	for _, f := range restriction.ChildElements() {
		if err := st.addFacet(f); err != nil {
			return nil, err
		}
	}
	if name != "" {
		c.simple[name] = st
	}
	return st, nil
}

func (st *simpleType) addFacet(f *etree.Element) error {
	value := f.SelectAttrValue("value", "")
	intValue := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("xsd: valor de %s inválido %q", f.Tag, value)
		}
		return n, nil
	}
	decValue := func() (*decimal.Decimal, error) {
		if !isNumeric(st.builtin) {
			return nil, fmt.Errorf("xsd: faceta %s no soportada para xs:%s", f.Tag, st.builtin)
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("xsd: valor de %s inválido %q", f.Tag, value)
		}
		return &d, nil
	}

	var err error
	switch f.Tag {
	case "enumeration":
		st.enums = append(st.enums, value)
	case "pattern":
		var re *regexp.Regexp
		re, err = regexp.Compile(`^(?:` + value + `)$`)
		st.patterns = append(st.patterns, re)
	case "length":
		st.length, err = intValue()
	case "minLength":
		st.minLength, err = intValue()
	case "maxLength":
		st.maxLength, err = intValue()
	case "totalDigits":
		st.totalDigits, err = intValue()
	case "fractionDigits":
		st.fractionDigits, err = intValue()
	case "minInclusive":
		st.minInclusive, err = decValue()
	case "maxInclusive":
		st.maxInclusive, err = decValue()
	case "minExclusive":
		st.minExclusive, err = decValue()
	case "maxExclusive":
		st.maxExclusive, err = decValue()
	case "whiteSpace", "annotation":
	default:
		err = unsupported(f)
	}
	return err
}

// qname resuelve "prefijo:local" con las declaraciones xmlns visibles desde el.
func (c *schemaCompiler) qname(el *etree.Element, value string) (ns, local string, err error) {
	prefix, local, ok := strings.Cut(value, ":")
	if !ok {
		prefix, local = "", value
	}
	if local == "" {
		return "", "", fmt.Errorf("xsd: referencia vacía en %s", el.FullTag())
	}
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if (prefix == "" && a.Space == "" && a.Key == "xmlns") || (prefix != "" && a.Space == "xmlns" && a.Key == prefix) {
				return a.Value, local, nil
			}
		}
	}
	if prefix == "" {
		return c.schema.targetNS, local, nil
	}
	return "", "", fmt.Errorf("xsd: prefijo %q sin declarar", prefix)
}
