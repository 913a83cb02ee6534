package pdf

import (
	"bytes"
	"strconv"

	"github.com/go-pdf/fpdf"

	"wedge-matrix/internal/domain"
)

// Placeholder se muestra en celdas sin datos para la opcion elegida.
const Placeholder = "—"

const (
	defaultTitle = "Wedge Matrix"
	rowHeight    = 12.0
	clubColWidth = 30.0
)

// Renderer genera la matriz como PDF carta apaisado.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) RenderWedgeMatrix(m domain.WedgeMatrix) ([]byte, error) {
	doc := fpdf.New("L", "mm", "Letter", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(title(m), true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.CellFormat(0, 14, tr(title(m)), "", 1, "C", false, 0, "")
	doc.Ln(4)

	pageWidth, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	cols := len(m.ColumnHeaders)
	valueWidth := pageWidth - left - right - clubColWidth
	if cols > 0 {
		valueWidth /= float64(cols)
	}

	doc.SetFont("Helvetica", "B", 12)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(clubColWidth, rowHeight, "", "1", 0, "C", true, 0, "")
	for _, header := range m.ColumnHeaders {
		doc.CellFormat(valueWidth, rowHeight, tr(header), "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	for i, club := range m.ClubLabels {
		doc.SetFont("Helvetica", "B", 12)
		doc.CellFormat(clubColWidth, rowHeight, tr(club), "1", 0, "C", true, 0, "")
		doc.SetFont("Helvetica", "", 12)
		for j := 0; j < cols; j++ {
			doc.CellFormat(valueWidth, rowHeight, tr(CellText(cellAt(m.YardageValues, i, j), m.SelectedRowDisplayOption)), "1", 0, "C", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CellText devuelve el texto de una celda segun la opcion de visualizacion.
func CellText(cell domain.YardageCell, option string) string {
	switch option {
	case domain.DisplayCarry:
		return valueOrPlaceholder(cell.CarryValue)
	case domain.DisplayTotal:
		return valueOrPlaceholder(cell.TotalValue)
	}
	switch {
	case cell.CarryValue != nil && cell.TotalValue != nil:
		return formatYards(*cell.CarryValue) + "/" + formatYards(*cell.TotalValue)
	case cell.CarryValue != nil:
		return formatYards(*cell.CarryValue)
	case cell.TotalValue != nil:
		return formatYards(*cell.TotalValue)
	}
	return Placeholder
}

func title(m domain.WedgeMatrix) string {
	if m.Label != nil && *m.Label != "" {
		return *m.Label
	}
	return defaultTitle
}

// cellAt tolera grillas mas cortas que los encabezados.
func cellAt(grid [][]domain.YardageCell, row, col int) domain.YardageCell {
	if row >= len(grid) || col >= len(grid[row]) {
		return domain.YardageCell{}
	}
	return grid[row][col]
}

func valueOrPlaceholder(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return formatYards(*v)
}

func formatYards(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
