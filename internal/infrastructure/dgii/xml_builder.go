// Construcción del XML del e-CF según el layout DGII (sin firma; el signer
// la inyecta después).

package dgii

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ecf-api/internal/domain/entity"
)

// ECFVersion versión del layout emitida en Encabezado/Version.
const ECFVersion = "1.0"

// XMLBuilderService construye el documento ECF de un comprobante fiscal.
type XMLBuilderService struct {
	now func() time.Time
}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{now: time.Now}
}

// Build genera el XML completo del comprobante, con declaración.
// Los montos se emiten con dos decimales; los campos opcionales del
// comprador se emiten vacíos, nunca se omiten.
func (s *XMLBuilderService) Build(cfg *entity.VoucherConfig, voucher *entity.Voucher, lines []entity.VoucherLine) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("dgii: el comprobante fiscal no tiene configuración asociada")
	}
	if voucher == nil {
		return "", fmt.Errorf("dgii: comprobante nulo")
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: "ECF"}}
	if err := enc.EncodeToken(root); err != nil {
		return "", err
	}

	// ---- Encabezado: identidad del emisor y datos legales del documento
	header := xml.StartElement{Name: xml.Name{Local: "Encabezado"}}
	if err := enc.EncodeToken(header); err != nil {
		return "", err
	}
	writeText(enc, "Version", ECFVersion)
	writeText(enc, "RNCEmisor", cfg.RNC)
	writeText(enc, "RazonSocialEmisor", cfg.NombreContribuyente)
	writeText(enc, "TipoECF", voucher.Tipo)
	writeText(enc, "NumeroECF", voucher.NumeroCompleto)
	writeText(enc, "FechaEmision", voucher.FechaEmision.Format("2006-01-02"))
	fechaVenc := ""
	if voucher.FechaVencimiento != nil {
		fechaVenc = voucher.FechaVencimiento.Format("2006-01-02")
	}
	writeText(enc, "FechaVencimiento", fechaVenc)
	writeText(enc, "RNCComprador", voucher.ClienteDocumento)
	writeText(enc, "NombreComprador", voucher.ClienteNombre)
	writeText(enc, "TelefonoComprador", voucher.TelefonoContacto)
	writeText(enc, "CorreoComprador", voucher.CorreoEnvio)
	if err := enc.EncodeToken(header.End()); err != nil {
		return "", err
	}

	// ---- Detalles: una entrada por línea, numeradas desde 1
	detalles := xml.StartElement{Name: xml.Name{Local: "Detalles"}}
	if err := enc.EncodeToken(detalles); err != nil {
		return "", err
	}
	for i, line := range lines {
		detalle := xml.StartElement{Name: xml.Name{Local: "Detalle"}}
		if err := enc.EncodeToken(detalle); err != nil {
			return "", err
		}
		writeText(enc, "NoLinea", strconv.Itoa(i+1))
		writeText(enc, "Descripcion", line.Descripcion)
		writeText(enc, "Cantidad", formatDecimal(line.Cantidad))
		writeText(enc, "PrecioUnitario", formatDecimal(line.PrecioUnitario))
		writeText(enc, "Subtotal", formatDecimal(line.Subtotal))
		writeText(enc, "Impuesto", formatDecimal(line.Impuesto))
		writeText(enc, "Total", formatDecimal(line.Total))
		if err := enc.EncodeToken(detalle.End()); err != nil {
			return "", err
		}
	}
	if err := enc.EncodeToken(detalles.End()); err != nil {
		return "", err
	}

	// ---- Totales
	totales := xml.StartElement{Name: xml.Name{Local: "Totales"}}
	if err := enc.EncodeToken(totales); err != nil {
		return "", err
	}
	writeText(enc, "Subtotal", formatDecimal(voucher.Subtotal))
	writeText(enc, "ITBIS", formatDecimal(voucher.ITBIS))
	writeText(enc, "OtrosImpuestos", formatDecimal(voucher.OtrosImpuestos))
	writeText(enc, "Total", formatDecimal(voucher.Total))
	writeText(enc, "MontoPagado", formatDecimal(voucher.MontoPagado))
	if err := enc.EncodeToken(totales.End()); err != nil {
		return "", err
	}

	// ---- Pagos
	pagos := xml.StartElement{Name: xml.Name{Local: "Pagos"}}
	if err := enc.EncodeToken(pagos); err != nil {
		return "", err
	}
	writeText(enc, "MetodoPago", voucher.MetodoPago)
	writeText(enc, "Monto", formatDecimal(voucher.MontoPagado))
	if err := enc.EncodeToken(pagos.End()); err != nil {
		return "", err
	}

	// ---- Meta
	meta := xml.StartElement{Name: xml.Name{Local: "Meta"}}
	if err := enc.EncodeToken(meta); err != nil {
		return "", err
	}
	writeText(enc, "GeneradoEn", s.now().Format(time.RFC3339))
	if voucher.Notas != "" {
		writeText(enc, "Notas", voucher.Notas)
	}
	if err := enc.EncodeToken(meta.End()); err != nil {
		return "", err
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}

	return xmlDeclaration + buf.String(), nil
}

// writeText emite <local>value</local>. Valores vacíos producen elemento vacío.
func writeText(enc *xml.Encoder, local, value string) {
	start := xml.StartElement{Name: xml.Name{Local: local}}
	_ = enc.EncodeToken(start)
	if value != "" {
		_ = enc.EncodeToken(xml.CharData(value))
	}
	_ = enc.EncodeToken(start.End())
}

// formatDecimal redondea a dos decimales con ceros explícitos ("0.00").
func formatDecimal(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
