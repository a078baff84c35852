package crews

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Crew struct {
	ID             int64     `json:"id"`
	Clave          string    `json:"clave"`
	Nombre         string    `json:"nombre"`
	Grupo          string    `json:"grupo,omitempty"`
	Actividad      string    `json:"actividad,omitempty"`
	Activo         bool      `json:"activo"`
	TotalEmpleados int       `json:"totalEmpleados"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Input struct {
	Clave     string
	Nombre    string
	Grupo     string
	Actividad string
}

// Member is an active employee as shown by the crew organizer.
type Member struct {
	ID              int64           `json:"id"`
	Clave           string          `json:"clave"`
	Nombre          string          `json:"nombre"`
	ApellidoPaterno string          `json:"apellidoPaterno"`
	ApellidoMaterno string          `json:"apellidoMaterno"`
	SueldoDiario    decimal.Decimal `json:"sueldoDiario"`
}

func (m Member) NombreCompleto() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Nombre, m.ApellidoPaterno, m.ApellidoMaterno} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// RosterEntry is one row of the roster snapshot.
type RosterEntry struct {
	Member
	Assigned bool
}

type Roster struct {
	Crew      Crew     `json:"cuadrilla"`
	Assigned  []Member `json:"asignados"`
	Available []Member `json:"disponibles"`
}

type ListResult struct {
	Items    []Crew
	Total    int
	Active   int
	Inactive int
}
