package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/ampara/clinic/internal/platform/apperr"
)

// Role is a staff role. The zero value is RoleUnknown and grants nothing.
type Role string

const (
	RoleUnknown         Role = ""
	RoleAdministrator   Role = "Administrator"
	RoleSocialWorker    Role = "SocialWorker"
	RoleNutritionist    Role = "Nutritionist"
	RolePsychologist    Role = "Psychologist"
	RolePhysiotherapist Role = "Physiotherapist"
	RoleSecretary       Role = "Secretary"
)

// Permission is a named capability granted through a role.
type Permission string

const (
	ViewPatients         Permission = "ViewPatients"
	CreatePatients       Permission = "CreatePatients"
	EditPatients         Permission = "EditPatients"
	DeletePatients       Permission = "DeletePatients"
	ViewMedicalRecords   Permission = "ViewMedicalRecords"
	CreateMedicalRecords Permission = "CreateMedicalRecords"
	EditMedicalRecords   Permission = "EditMedicalRecords"
	DeleteMedicalRecords Permission = "DeleteMedicalRecords"
	ViewAppointments     Permission = "ViewAppointments"
	CreateAppointments   Permission = "CreateAppointments"
	EditAppointments     Permission = "EditAppointments"
	DeleteAppointments   Permission = "DeleteAppointments"
	ViewUsers            Permission = "ViewUsers"
	CreateUsers          Permission = "CreateUsers"
	EditUsers            Permission = "EditUsers"
	DeleteUsers          Permission = "DeleteUsers"
	ManageRoles          Permission = "ManageRoles"
	ViewReports          Permission = "ViewReports"
	ExportData           Permission = "ExportData"
	ManageSettings       Permission = "ManageSettings"
)

var permissionLabels = map[Permission]string{
	ViewPatients:         "Visualizar Pacientes",
	CreatePatients:       "Criar Pacientes",
	EditPatients:         "Editar Pacientes",
	DeletePatients:       "Excluir Pacientes",
	ViewMedicalRecords:   "Visualizar Prontuários",
	CreateMedicalRecords: "Criar Prontuários",
	EditMedicalRecords:   "Editar Prontuários",
	DeleteMedicalRecords: "Excluir Prontuários",
	ViewAppointments:     "Visualizar Agenda",
	CreateAppointments:   "Criar Agendamentos",
	EditAppointments:     "Editar Agendamentos",
	DeleteAppointments:   "Excluir Agendamentos",
	ViewUsers:            "Visualizar Usuários",
	CreateUsers:          "Criar Usuários",
	EditUsers:            "Editar Usuários",
	DeleteUsers:          "Excluir Usuários",
	ManageRoles:          "Gerenciar Funções",
	ViewReports:          "Visualizar Relatórios",
	ExportData:           "Exportar Dados",
	ManageSettings:       "Gerenciar Configurações",
}

// AllPermissions lists every permission in display order.
func AllPermissions() []Permission {
	return []Permission{
		ViewPatients, CreatePatients, EditPatients, DeletePatients,
		ViewMedicalRecords, CreateMedicalRecords, EditMedicalRecords, DeleteMedicalRecords,
		ViewAppointments, CreateAppointments, EditAppointments, DeleteAppointments,
		ViewUsers, CreateUsers, EditUsers, DeleteUsers,
		ManageRoles, ViewReports, ExportData, ManageSettings,
	}
}

func (p Permission) Label() string {
	if l, ok := permissionLabels[p]; ok {
		return l
	}
	return string(p)
}

type roleInfo struct {
	label       string
	description string
	permissions []Permission
}

var healthProfessionalPermissions = []Permission{
	ViewPatients, EditPatients,
	ViewMedicalRecords, CreateMedicalRecords, EditMedicalRecords,
	ViewAppointments, CreateAppointments, EditAppointments,
	ViewReports,
}

// roles is the exhaustive role table. RoleUnknown is deliberately absent.
var roles = map[Role]roleInfo{
	RoleAdministrator: {
		label:       "Administrador",
		description: "Acesso total ao sistema. Gerencia usuários, configurações e todas as funcionalidades.",
		permissions: AllPermissions(),
	},
	RoleSocialWorker: {
		label:       "Assistente Social",
		description: "Gerencia cadastro de pacientes, dados sociais e pode visualizar prontuários para acompanhamento.",
		permissions: []Permission{
			ViewPatients, CreatePatients, EditPatients, DeletePatients,
			ViewMedicalRecords,
			ViewAppointments, CreateAppointments, EditAppointments,
			ViewReports, ExportData,
		},
	},
	RoleNutritionist: {
		label:       "Nutricionista",
		description: "Gerencia evoluções nutricionais, agenda de atendimentos e visualiza dados dos pacientes.",
		permissions: healthProfessionalPermissions,
	},
	RolePsychologist: {
		label:       "Psicólogo",
		description: "Gerencia evoluções psicológicas, agenda de atendimentos e visualiza dados dos pacientes.",
		permissions: healthProfessionalPermissions,
	},
	RolePhysiotherapist: {
		label:       "Fisioterapeuta",
		description: "Gerencia evoluções fisioterapêuticas, agenda de atendimentos e visualiza dados dos pacientes.",
		permissions: healthProfessionalPermissions,
	},
	RoleSecretary: {
		label:       "Secretária",
		description: "Visualiza pacientes e gerencia agenda de atendimentos. Sem acesso a prontuários.",
		permissions: []Permission{
			ViewPatients,
			ViewAppointments, CreateAppointments, EditAppointments, DeleteAppointments,
		},
	},
}

// AllRoles lists the valid roles in display order.
func AllRoles() []Role {
	return []Role{
		RoleAdministrator, RoleSocialWorker, RoleNutritionist,
		RolePsychologist, RolePhysiotherapist, RoleSecretary,
	}
}

// ParseRole maps s to a known role, or RoleUnknown.
func ParseRole(s string) Role {
	r := Role(s)
	if _, ok := roles[r]; ok {
		return r
	}
	return RoleUnknown
}

func IsValidRole(s string) bool {
	return ParseRole(s) != RoleUnknown
}

func (r Role) Label() string {
	return roles[r].label
}

func (r Role) Description() string {
	return roles[r].description
}

// IsHealthProfessional is true for roles that conduct appointments and
// record evolutions.
func IsHealthProfessional(r Role) bool {
	return r == RoleNutritionist || r == RolePsychologist || r == RolePhysiotherapist
}

// GetRolePermissions returns a copy of the role's permission set. Unknown
// roles have none.
func GetRolePermissions(r Role) []Permission {
	perms := roles[r].permissions
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

func HasPermission(r Role, p Permission) bool {
	for _, have := range roles[r].permissions {
		if have == p {
			return true
		}
	}
	return false
}

// HasAnyPermission is true iff the role holds at least one of required.
func HasAnyPermission(r Role, required ...Permission) bool {
	for _, p := range required {
		if HasPermission(r, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is true iff the role holds every permission in required.
func HasAllPermissions(r Role, required ...Permission) bool {
	for _, p := range required {
		if !HasPermission(r, p) {
			return false
		}
	}
	return true
}

// RequirePermission rejects requests without an authenticated identity (401)
// and requests whose role holds none of perms (403).
func RequirePermission(perms ...Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return apperr.Unauthorized("authentication required")
			}
			role := ParseRole(id.Role)
			if role == RoleUnknown {
				return apperr.Forbidden("user role is missing or unknown")
			}
			if !HasAnyPermission(role, perms...) {
				return apperr.Forbidden("insufficient permissions for this operation")
			}
			return next(c)
		}
	}
}

// RequireAuthenticated only checks that an identity is present.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFromContext(c.Request().Context()); !ok {
				return apperr.Unauthorized("authentication required")
			}
			return next(c)
		}
	}
}
