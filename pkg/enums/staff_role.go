package enums

// StaffRole is the role carried in staff access tokens.
type StaffRole string

const (
	StaffRoleSuperAdmin   StaffRole = "super_admin"
	StaffRoleCompanyAdmin StaffRole = "company_admin"
	StaffRoleAttendant    StaffRole = "attendant"
	StaffRoleDriver       StaffRole = "driver"
)

var validStaffRoles = []StaffRole{
	StaffRoleSuperAdmin,
	StaffRoleCompanyAdmin,
	StaffRoleAttendant,
	StaffRoleDriver,
}

func (s StaffRole) String() string {
	return string(s)
}

func (s StaffRole) IsValid() bool {
	return isOneOf(s, validStaffRoles)
}

func ParseStaffRole(value string) (StaffRole, error) {
	return parseOneOf(value, validStaffRoles, "staff role")
}
