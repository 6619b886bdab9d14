package auth

const (
	RoleWorker     = "worker"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

const (
	PermTimeclockUse   = "timeclock.use"
	PermTimeclockRead  = "timeclock.read"
	PermTimeclockAdmin = "timeclock.admin"
	PermHoursRead      = "hours.read"
	PermHoursWrite     = "hours.write"
	PermReportsRead    = "reports.read"
	PermSettingsRead   = "settings.read"
	PermSettingsWrite  = "settings.write"
)

var RolePermissions = map[string][]string{
	RoleWorker: {
		PermTimeclockUse,
		PermHoursRead,
		PermSettingsRead,
	},
	RoleSupervisor: {
		PermTimeclockUse,
		PermTimeclockRead,
		PermHoursRead,
		PermHoursWrite,
		PermReportsRead,
		PermSettingsRead,
	},
	RoleAdmin: {
		PermTimeclockUse,
		PermTimeclockRead,
		PermTimeclockAdmin,
		PermHoursRead,
		PermHoursWrite,
		PermReportsRead,
		PermSettingsRead,
		PermSettingsWrite,
	},
}

// HasPermission reports whether the role grants the permission key.
func HasPermission(roleName, perm string) bool {
	for _, granted := range RolePermissions[roleName] {
		if granted == perm {
			return true
		}
	}
	return false
}
