package periods

import (
	"fmt"
	"strings"
	"time"
)

// ParseTipo maps a client type name to a stored type.
func ParseTipo(raw string) (Tipo, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "semanal":
		return Semanal, nil
	case "quincenal":
		return Quincenal, nil
	case "catorcenal":
		return Catorcenal, nil
	case "custom", "especial":
		return Especial, nil
	}
	return "", fmt.Errorf("%w: tipo de periodo desconocido %q", ErrInvalidInput, raw)
}

// Days is the fixed length of the type, zero for ESPECIAL.
func (t Tipo) Days() int {
	switch t {
	case Semanal:
		return 7
	case Quincenal:
		return 15
	case Catorcenal:
		return 14
	}
	return 0
}

func (t Tipo) Fixed() bool {
	return t.Days() > 0
}

// EndDate derives the last day of a fixed-length period. ok is false for
// ESPECIAL, whose end is chosen by the user.
func EndDate(start time.Time, t Tipo) (time.Time, bool) {
	days := t.Days()
	if days == 0 {
		return time.Time{}, false
	}
	return dateOnly(start).AddDate(0, 0, days-1), true
}

// PaymentWindow returns the inclusive range of valid payment dates.
func PaymentWindow(end time.Time) Window {
	end = dateOnly(end)
	return Window{Desde: end.AddDate(0, 0, -1), Hasta: end.AddDate(0, 0, 3)}
}

func (w Window) Contains(day time.Time) bool {
	day = dateOnly(day)
	return !day.Before(w.Desde) && !day.After(w.Hasta)
}

// TotalDays counts both the first and the last day.
func TotalDays(start, end time.Time) int {
	const secondsPerDay = 24 * 60 * 60
	return int((dateOnly(end).Unix()-dateOnly(start).Unix())/secondsPerDay) + 1
}

// Code builds the period clave from the number of periods already stored for
// the year.
func Code(year, existing int) string {
	return fmt.Sprintf("%d-%d000", year, existing+1)
}

// Plan validates the input and derives the stored fields.
func Plan(in Input) (Draft, error) {
	if in.FechaInicio == nil {
		return Draft{}, fmt.Errorf("%w: fechaInicio es requerida", ErrInvalidInput)
	}
	tipo, err := ParseTipo(in.Tipo)
	if err != nil {
		return Draft{}, err
	}
	start := dateOnly(*in.FechaInicio)

	var end time.Time
	if derived, ok := EndDate(start, tipo); ok {
		if in.FechaFin != nil && !dateOnly(*in.FechaFin).Equal(derived) {
			return Draft{}, fmt.Errorf("%w: fechaFin debe ser %s para un periodo %s",
				ErrInvalidInput, derived.Format(time.DateOnly), strings.ToLower(string(tipo)))
		}
		end = derived
	} else {
		if in.FechaFin == nil {
			return Draft{}, fmt.Errorf("%w: fechaFin es requerida para un periodo especial", ErrInvalidInput)
		}
		end = dateOnly(*in.FechaFin)
		if end.Before(start) {
			return Draft{}, fmt.Errorf("%w: fechaFin no puede ser anterior a fechaInicio", ErrInvalidInput)
		}
	}

	d := Draft{
		FechaInicio: start,
		FechaFin:    end,
		TotalDias:   TotalDays(start, end),
		Anio:        start.Year(),
		Tipo:        tipo,
	}
	if in.FechaPago != nil {
		pago := dateOnly(*in.FechaPago)
		w := PaymentWindow(end)
		if !w.Contains(pago) {
			return Draft{}, fmt.Errorf("%w: fechaPago debe estar entre %s y %s", ErrInvalidInput,
				w.Desde.Format(time.DateOnly), w.Hasta.Format(time.DateOnly))
		}
		d.FechaPago = &pago
	}
	return d, nil
}

// BuildPreview computes what a period starting on start would look like.
func BuildPreview(start time.Time, t Tipo) Preview {
	p := Preview{Tipo: t, FechaInicio: dateOnly(start)}
	if end, ok := EndDate(start, t); ok {
		w := PaymentWindow(end)
		p.FechaFin = &end
		p.TotalDias = TotalDays(start, end)
		p.VentanaPago = &w
	}
	return p
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
