package crews

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// RosterPDF renders the assigned employees of a crew as an A4 sheet.
func RosterPDF(r Roster, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Lista de cuadrilla "+r.Crew.Clave), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Cuadrilla %s - %s", r.Crew.Clave, r.Crew.Nombre)))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	if r.Crew.Grupo != "" {
		pdf.Cell(0, 7, tr("Grupo: "+r.Crew.Grupo))
		pdf.Ln(6)
	}
	if r.Crew.Actividad != "" {
		pdf.Cell(0, 7, tr("Actividad: "+r.Crew.Actividad))
		pdf.Ln(6)
	}
	pdf.Cell(0, 7, "Generado: "+generatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(25, 8, "Clave", "1", 0, "L", true, 0, "")
	pdf.CellFormat(115, 8, "Nombre", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Sueldo diario", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	total := decimal.Zero
	for _, m := range r.Assigned {
		pdf.CellFormat(25, 7, tr(m.Clave), "1", 0, "L", false, 0, "")
		pdf.CellFormat(115, 7, tr(m.NombreCompleto()), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, "$"+m.SueldoDiario.StringFixed(2), "1", 1, "R", false, 0, "")
		total = total.Add(m.SueldoDiario)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(140, 8, fmt.Sprintf("Total de empleados: %d", len(r.Assigned)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, "$"+total.StringFixed(2), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
