package employees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	hired := time.Date(2025, 3, 4, 17, 30, 0, 0, time.FixedZone("CST", -6*3600))
	in := Normalize(Input{
		Clave:            " 0007 ",
		Nombre:           "  María ",
		ApellidoPaterno:  " López",
		CURP:             "lopm800101mslprr09",
		RFC:              " lopm800101abc ",
		RegistroPatronal: "y5412345109",
		FechaIngreso:     &hired,
		SueldoDiario:     decimal.RequireFromString("278.805"),
	})

	assert.Equal(t, "0007", in.Clave)
	assert.Equal(t, "María", in.Nombre)
	assert.Equal(t, "López", in.ApellidoPaterno)
	assert.Equal(t, "LOPM800101MSLPRR09", in.CURP)
	assert.Equal(t, "LOPM800101ABC", in.RFC)
	assert.Equal(t, "Y5412345109", in.RegistroPatronal)
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), *in.FechaIngreso)
	assert.Equal(t, "278.81", in.SueldoDiario.StringFixed(2))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Input{Nombre: "Juan"}))
	assert.ErrorIs(t, Validate(Input{}), ErrInvalidInput)
	assert.ErrorIs(t, Validate(Input{Nombre: "Juan", SueldoDiario: decimal.NewFromInt(-1)}), ErrInvalidInput)
	assert.ErrorIs(t, Validate(Input{Nombre: "Juan", DescuentoInfonavit: decimal.NewFromFloat(-0.5)}), ErrInvalidInput)

	assert.NoError(t, Validate(Input{Nombre: "Juan", SueldoDiario: MaxAmount, DescuentoInfonavit: MaxAmount}))
	tooBig := decimal.NewFromInt(10_000_000_000)
	assert.ErrorIs(t, Validate(Input{Nombre: "Juan", SueldoDiario: tooBig}), ErrInvalidInput)
	assert.ErrorIs(t, Validate(Input{Nombre: "Juan", DescuentoInfonavit: tooBig}), ErrInvalidInput)
}

func TestNombreCompleto(t *testing.T) {
	assert.Equal(t, "Juan Pérez Soto", Employee{Nombre: "Juan", ApellidoPaterno: "Pérez", ApellidoMaterno: "Soto"}.NombreCompleto())
	assert.Equal(t, "Juan Soto", Employee{Nombre: "Juan", ApellidoMaterno: " Soto "}.NombreCompleto())
}
