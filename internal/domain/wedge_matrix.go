package domain

import "time"

const (
	DisplayCarry = "Carry"
	DisplayTotal = "Total"
	DisplayBoth  = "Both"
)

const (
	MaxWedgeMatricesPerUser = 5
	MaxRows                 = 6
	MaxColumns              = 4
)

// ClubCodes son las etiquetas de palo permitidas para las filas.
var ClubCodes = []string{"LW", "SW", "GW", "AW", "UW", "PW"}

var (
	DefaultColumnHeaders = []string{"25%", "50%", "75%", "100%"}
	DefaultClubLabels    = []string{"LW", "SW", "GW", "PW"}
)

// YardageCell guarda las distancias de una celda; nil significa "sin dato".
type YardageCell struct {
	CarryValue *float64 `json:"carry_value"`
	TotalValue *float64 `json:"total_value"`
}

type WedgeMatrix struct {
	ID                       string          `json:"id"`
	UserID                   string          `json:"user_id"`
	Label                    *string         `json:"label"`
	NumberOfRows             int             `json:"number_of_rows"`
	NumberOfColumns          int             `json:"number_of_columns"`
	ColumnHeaders            []string        `json:"column_headers"`
	ClubLabels               []string        `json:"club_labels"`
	SelectedRowDisplayOption string          `json:"selected_row_display_option"`
	YardageValues            [][]YardageCell `json:"yardage_values"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// NewDefaultWedgeMatrix arma la matriz inicial de 4 palos x 4 columnas sin valores.
func NewDefaultWedgeMatrix(id, userID string, label *string, now time.Time) WedgeMatrix {
	headers := append([]string(nil), DefaultColumnHeaders...)
	clubs := append([]string(nil), DefaultClubLabels...)
	return WedgeMatrix{
		ID:                       id,
		UserID:                   userID,
		Label:                    label,
		NumberOfRows:             len(clubs),
		NumberOfColumns:          len(headers),
		ColumnHeaders:            headers,
		ClubLabels:               clubs,
		SelectedRowDisplayOption: DisplayBoth,
		YardageValues:            EmptyYardageGrid(len(clubs), len(headers)),
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

// EmptyYardageGrid devuelve una grilla rows x cols con todas las celdas vacias.
func EmptyYardageGrid(rows, cols int) [][]YardageCell {
	grid := make([][]YardageCell, rows)
	for i := range grid {
		grid[i] = make([]YardageCell, cols)
	}
	return grid
}

// WedgeMatrixPatch representa una actualizacion parcial: solo se aplican los campos no nil.
type WedgeMatrixPatch struct {
	Label                    *string
	NumberOfRows             *int
	NumberOfColumns          *int
	ColumnHeaders            []string
	ClubLabels               []string
	SelectedRowDisplayOption *string
	YardageValues            [][]YardageCell
}

func (p WedgeMatrixPatch) IsEmpty() bool {
	return p.Label == nil &&
		p.NumberOfRows == nil &&
		p.NumberOfColumns == nil &&
		p.ColumnHeaders == nil &&
		p.ClubLabels == nil &&
		p.SelectedRowDisplayOption == nil &&
		p.YardageValues == nil
}

// Apply copia en m los campos presentes en el patch.
func (p WedgeMatrixPatch) Apply(m *WedgeMatrix) {
	if p.Label != nil {
		label := *p.Label
		m.Label = &label
	}
	if p.NumberOfRows != nil {
		m.NumberOfRows = *p.NumberOfRows
	}
	if p.NumberOfColumns != nil {
		m.NumberOfColumns = *p.NumberOfColumns
	}
	if p.ColumnHeaders != nil {
		m.ColumnHeaders = append([]string(nil), p.ColumnHeaders...)
	}
	if p.ClubLabels != nil {
		m.ClubLabels = append([]string(nil), p.ClubLabels...)
	}
	if p.SelectedRowDisplayOption != nil {
		m.SelectedRowDisplayOption = *p.SelectedRowDisplayOption
	}
	if p.YardageValues != nil {
		grid := make([][]YardageCell, len(p.YardageValues))
		for i, row := range p.YardageValues {
			grid[i] = append([]YardageCell(nil), row...)
		}
		m.YardageValues = grid
	}
}
