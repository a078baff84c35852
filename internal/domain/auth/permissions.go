package auth

import (
	"context"
	"slices"
)

const (
	RoleAdmin      = "admin"
	RoleCapturista = "capturista"
	RoleConsulta   = "consulta"
)

const (
	PermEmployeesRead   = "empleados.read"
	PermEmployeesWrite  = "empleados.write"
	PermCrewsRead       = "cuadrillas.read"
	PermCrewsWrite      = "cuadrillas.write"
	PermActivitiesRead  = "actividades.read"
	PermActivitiesWrite = "actividades.write"
	PermPeriodsRead     = "periodos.read"
	PermPeriodsWrite    = "periodos.write"
	PermAuditRead       = "auditoria.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermCrewsRead,
	PermCrewsWrite,
	PermActivitiesRead,
	PermActivitiesWrite,
	PermPeriodsRead,
	PermPeriodsWrite,
	PermAuditRead,
}

var readPermissions = []string{
	PermEmployeesRead,
	PermCrewsRead,
	PermActivitiesRead,
	PermPeriodsRead,
}

// RolePermissions is a static table; roles are fixed by the usuarios check
// constraint.
var RolePermissions = Permissions{
	RoleAdmin: DefaultPermissions,
	RoleCapturista: append(slices.Clone(readPermissions),
		PermEmployeesWrite,
		PermCrewsWrite,
		PermActivitiesWrite,
		PermPeriodsWrite,
	),
	RoleConsulta: readPermissions,
}

type Permissions map[string][]string

func (p Permissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	return slices.Contains(p[role], permission), nil
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
