package periods

import "time"

type Tipo string

const (
	Semanal    Tipo = "SEMANAL"
	Quincenal  Tipo = "QUINCENAL"
	Catorcenal Tipo = "CATORCENAL"
	Especial   Tipo = "ESPECIAL"
)

type Period struct {
	ID          int64      `json:"id"`
	Clave       string     `json:"clave"`
	FechaInicio time.Time  `json:"fechaInicio"`
	FechaFin    time.Time  `json:"fechaFin"`
	FechaPago   *time.Time `json:"fechaPago,omitempty"`
	TotalDias   int        `json:"totalDias"`
	Anio        int        `json:"anio"`
	TipoPeriodo Tipo       `json:"tipoPeriodo"`
	Activo      bool       `json:"activo"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Input is a period request as received from a client. Tipo is the raw,
// case-insensitive type name.
type Input struct {
	FechaInicio *time.Time
	FechaFin    *time.Time
	FechaPago   *time.Time
	Tipo        string
	Activar     bool
}

// Draft is a validated period ready to be stored.
type Draft struct {
	FechaInicio time.Time
	FechaFin    time.Time
	FechaPago   *time.Time
	TotalDias   int
	Anio        int
	Tipo        Tipo
}

type Window struct {
	Desde time.Time `json:"desde"`
	Hasta time.Time `json:"hasta"`
}

type Preview struct {
	Tipo        Tipo       `json:"tipoPeriodo"`
	FechaInicio time.Time  `json:"fechaInicio"`
	FechaFin    *time.Time `json:"fechaFin,omitempty"`
	TotalDias   int        `json:"totalDias"`
	VentanaPago *Window    `json:"ventanaPago,omitempty"`
}

type ActiveState struct {
	Active bool `json:"activo"`
	Count  int  `json:"total"`
}

type ListFilter struct {
	Anio *int
}
