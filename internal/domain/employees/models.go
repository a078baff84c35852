package employees

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID                 int64           `json:"id"`
	Clave              string          `json:"clave"`
	Nombre             string          `json:"nombre"`
	ApellidoPaterno    string          `json:"apellidoPaterno"`
	ApellidoMaterno    string          `json:"apellidoMaterno"`
	EstadoOrigen       string          `json:"estadoOrigen"`
	CURP               string          `json:"curp"`
	RFC                string          `json:"rfc"`
	NSS                string          `json:"nss"`
	FechaIngreso       *time.Time      `json:"fechaIngreso,omitempty"`
	RegistroPatronal   string          `json:"registroPatronal"`
	SueldoDiario       decimal.Decimal `json:"sueldoDiario"`
	DescuentoInfonavit decimal.Decimal `json:"descuentoInfonavit"`
	Activo             bool            `json:"activo"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// NombreCompleto joins the given name and both surnames, skipping blanks.
func (e Employee) NombreCompleto() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Nombre, e.ApellidoPaterno, e.ApellidoMaterno} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Input holds the editable fields of an employee. An empty Clave on create
// asks for a generated one.
type Input struct {
	Clave              string
	Nombre             string
	ApellidoPaterno    string
	ApellidoMaterno    string
	EstadoOrigen       string
	CURP               string
	RFC                string
	NSS                string
	FechaIngreso       *time.Time
	RegistroPatronal   string
	SueldoDiario       decimal.Decimal
	DescuentoInfonavit decimal.Decimal
}

type CrewMembership struct {
	ID     int64  `json:"id"`
	Clave  string `json:"clave"`
	Nombre string `json:"nombre"`
	Grupo  string `json:"grupo,omitempty"`
	Activo bool   `json:"activo"`
}

type StatusCounts struct {
	Active   int
	Inactive int
}
