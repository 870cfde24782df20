// Package xmlbackup serializa el inventario completo a XML, lo valida contra el XSD
// y lo vuelve a leer para restaurarlo.
package xmlbackup

import (
	"fmt"
	"strings"
	"time"
)

// Namespace espacio de nombres de todos los elementos del documento.
const Namespace = "http://inventario.dam.es"

// Version versión del formato que se escribe y la única que se acepta al restaurar.
const Version = "2.0"

// Nombres de elementos y atributos del documento.
const (
	elRoot         = "inventario"
	attrExportedAt = "fechaExportacion"
	attrVersion    = "version"

	elCategories = "categorias"
	elCategory   = "categoria"
	elProducts   = "productos"
	elProduct    = "producto"
	elMovements  = "movimientos"
	elMovement   = "movimiento"

	elCategoryID  = "idCategoria"
	elProductID   = "idProducto"
	elMovementID  = "idMovimiento"
	elName        = "nombre"
	elDescription = "descripcion"
	elPrice       = "precio"
	elStock       = "stock"
	elCreatedAt   = "fechaCreacion"
	elModifiedAt  = "fechaModificacion"
	elType        = "tipoMovimiento"
	elQuantity    = "cantidad"
	elStockBefore = "stockAnterior"
	elStockAfter  = "stockNuevo"
	elReason      = "motivo"
	elDate        = "fechaMovimiento"
	elUser        = "usuario"
)

// localDateTime formato sin zona de los backups antiguos (se interpretan en hora local).
const localDateTime = "2006-01-02T15:04:05.999999999"

// FormatTime fecha en RFC 3339 UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime acepta RFC 3339 (con zona) o fecha-hora ISO sin zona en hora local.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(localDateTime, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha %q no es ISO 8601", s)
	}
	return t, nil
}
