package xmlbackup

import (
	"encoding/xml"
	"io"
	"strconv"

	"github.com/jhoicas/inventario-stock/internal/domain/entity"
)

// Encode escribe el snapshot como documento XML en UTF-8 con sangría de 4 espacios.
// La sección movimientos se omite cuando no hay ninguno.
func Encode(w io.Writer, snap *entity.Snapshot) error {
	d := &docWriter{enc: xml.NewEncoder(w)}
	d.enc.Indent("", "    ")

	d.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)})
	d.token(xml.CharData("\n"))

	version := snap.Version
	if version == "" {
		version = Version
	}
	// El xmlns va como atributo literal: los hijos heredan el namespace por defecto.
	d.start(elRoot,
		xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: Namespace},
		xml.Attr{Name: xml.Name{Local: attrExportedAt}, Value: FormatTime(snap.ExportedAt)},
		xml.Attr{Name: xml.Name{Local: attrVersion}, Value: version},
	)

	d.start(elCategories)
	for _, c := range snap.Categories {
		d.start(elCategory)
		d.field(elCategoryID, strconv.FormatInt(c.ID, 10))
		d.field(elName, c.Name)
		if c.Description != "" {
			d.field(elDescription, c.Description)
		}
		d.field(elCreatedAt, FormatTime(c.CreatedAt))
		d.field(elModifiedAt, FormatTime(c.UpdatedAt))
		d.end(elCategory)
	}
	d.end(elCategories)

	d.start(elProducts)
	for _, p := range snap.Products {
		d.start(elProduct)
		d.field(elProductID, strconv.FormatInt(p.ID, 10))
		d.field(elName, p.Name)
		d.field(elCategory, p.Category)
		d.field(elPrice, p.Price.StringFixed(2))
		d.field(elStock, strconv.Itoa(p.Stock))
		d.field(elCreatedAt, FormatTime(p.CreatedAt))
		d.field(elModifiedAt, FormatTime(p.UpdatedAt))
		d.end(elProduct)
	}
	d.end(elProducts)

	if len(snap.Movements) > 0 {
		d.start(elMovements)
		for _, m := range snap.Movements {
			d.start(elMovement)
			d.field(elMovementID, strconv.FormatInt(m.ID, 10))
			d.field(elProductID, strconv.FormatInt(m.ProductID, 10))
			d.field(elType, m.Type)
			d.field(elQuantity, strconv.Itoa(m.Quantity))
			d.field(elStockBefore, strconv.Itoa(m.StockBefore))
			d.field(elStockAfter, strconv.Itoa(m.StockAfter))
			if m.Reason != "" {
				d.field(elReason, m.Reason)
			}
			d.field(elDate, FormatTime(m.Date))
			d.field(elUser, m.User)
			d.end(elMovement)
		}
		d.end(elMovements)
	}

	d.end(elRoot)
	if d.err != nil {
		return d.err
	}
	if err := d.enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// docWriter guarda el primer error del encoder y omite lo que venga después.
type docWriter struct {
	enc *xml.Encoder
	err error
}

func (d *docWriter) token(t xml.Token) {
	if d.err == nil {
		d.err = d.enc.EncodeToken(t)
	}
}

func (d *docWriter) start(local string, attrs ...xml.Attr) {
	d.token(xml.StartElement{Name: xml.Name{Local: local}, Attr: attrs})
}

func (d *docWriter) end(local string) {
	d.token(xml.EndElement{Name: xml.Name{Local: local}})
}

// field escribe <local>value</local>.
func (d *docWriter) field(local, value string) {
	d.start(local)
	d.token(xml.CharData(value))
	d.end(local)
}
