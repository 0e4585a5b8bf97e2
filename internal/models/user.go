package models

// StaffRole is the app-level role carried in dashboard tokens.
type StaffRole string

const (
	RoleAdmin     StaffRole = "admin"
	RoleRecruiter StaffRole = "recruiter"
)

// DashboardRoles may review and edit candidates.
func DashboardRoles() []string { return []string{string(RoleAdmin), string(RoleRecruiter)} }
