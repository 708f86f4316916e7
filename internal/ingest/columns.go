package ingest

import (
	"strings"
)

// Keyword dictionaries for locating the semantic columns in arbitrarily
// headed spreadsheets. Spanish and English spellings seen in real bank and
// ledger exports; order matters, the first keyword that matches a header
// wins.
var columnKeywords = map[Field][]string{
	FieldDate: {
		"fecha", "date", "fec", "dia", "day", "fecha_pago", "fecha_operacion",
		"f_operacion", "f_pago", "fecha de contabilización", "fecha de vencimiento",
	},
	FieldAmount: {
		"monto", "amount", "importe", "valor", "total", "cantidad", "pago",
		"abono", "cargo", "credito", "debito", "value", "cargo/abono (ml)", "cargo/abono",
	},
	FieldReference: {
		"referencia", "ref", "reference", "pv", "punto_venta", "puntoventa",
		"numero", "num", "id", "codigo", "code", "nro", "no", "voucher",
		"comprobante", "ticket", "folio", "numero_operacion", "nro_operacion",
		"comentarios", "cod. pv",
	},
	FieldDescription: {
		"descripcion", "description", "desc", "concepto", "detalle",
		"observacion", "nota", "comentario", "memo",
		"nombre de la cuenta de contrapartida", "nombre pv",
	},
}

// Field names one of the four semantic columns the engine needs.
type Field string

const (
	FieldDate        Field = "date"
	FieldAmount      Field = "amount"
	FieldReference   Field = "reference"
	FieldDescription Field = "description"
)

// Columns maps each semantic field to the detected header name, or "" when
// no header matched (that field is then empty/zero for every row).
type Columns struct {
	Date        string
	Amount      string
	Reference   string
	Description string
}

// DetectColumns finds the best-matching header for each semantic field.
// Headers and keywords are compared after lowercasing and stripping
// underscores, spaces and dashes; a keyword matches a header when either
// contains the other as a substring. The first satisfying keyword wins;
// there is no scoring across candidates.
func DetectColumns(headers []string) Columns {
	return Columns{
		Date:        findHeader(headers, columnKeywords[FieldDate]),
		Amount:      findHeader(headers, columnKeywords[FieldAmount]),
		Reference:   findHeader(headers, columnKeywords[FieldReference]),
		Description: findHeader(headers, columnKeywords[FieldDescription]),
	}
}

func findHeader(headers []string, keywords []string) string {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}
	for _, kw := range keywords {
		nkw := normalizeHeader(kw)
		for i, nh := range normalized {
			if nh == "" {
				continue
			}
			if strings.Contains(nh, nkw) || strings.Contains(nkw, nh) {
				return headers[i]
			}
		}
	}
	return ""
}

var headerStripper = strings.NewReplacer("_", "", " ", "", "-", "")

func normalizeHeader(h string) string {
	return headerStripper.Replace(strings.ToLower(strings.TrimSpace(h)))
}
