package employees

import (
	"strings"
	"time"
)

// Normalize trims every text field, upper-cases the official identifiers and
// truncates the hire date to a calendar day.
func Normalize(in Input) Input {
	in.Clave = strings.TrimSpace(in.Clave)
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.ApellidoPaterno = strings.TrimSpace(in.ApellidoPaterno)
	in.ApellidoMaterno = strings.TrimSpace(in.ApellidoMaterno)
	in.EstadoOrigen = strings.TrimSpace(in.EstadoOrigen)
	in.CURP = strings.ToUpper(strings.TrimSpace(in.CURP))
	in.RFC = strings.ToUpper(strings.TrimSpace(in.RFC))
	in.NSS = strings.TrimSpace(in.NSS)
	in.RegistroPatronal = strings.ToUpper(strings.TrimSpace(in.RegistroPatronal))
	if in.FechaIngreso != nil {
		y, m, d := in.FechaIngreso.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		in.FechaIngreso = &day
	}
	in.SueldoDiario = in.SueldoDiario.Round(2)
	in.DescuentoInfonavit = in.DescuentoInfonavit.Round(2)
	return in
}
