package enums

import "slices"

type UserRole string

const (
	UserRoleSupplier UserRole = "fornecedor"
	UserRoleConsumer UserRole = "consumidor"
	UserRoleOperator UserRole = "operador"
)

var userRoles = []UserRole{UserRoleSupplier, UserRoleConsumer, UserRoleOperator}

func (r UserRole) IsValid() bool { return slices.Contains(userRoles, r) }

func ParseUserRole(value string) (UserRole, error) {
	return parse("user role", value, userRoles)
}
