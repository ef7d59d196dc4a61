package domain

// SubjectType distinguishes authenticated caller kinds.
type SubjectType string

const (
	SubjectTypeResident SubjectType = "RESIDENT"
	SubjectTypeWorker   SubjectType = "WORKER"
	SubjectTypeStaff    SubjectType = "STAFF"
)

// StaffRole enumerates management-side roles carried in token claims.
type StaffRole string

const (
	StaffRoleManager  StaffRole = "MANAGER"
	StaffRoleAdmin    StaffRole = "ADMIN"
	StaffRoleSecurity StaffRole = "SECURITY"
)
