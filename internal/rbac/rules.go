package rbac

// Roles carried in session tokens.
const (
	RoleViewer  = "viewer"
	RoleOfficer = "officer"
	RoleAdmin   = "admin"
)

// Permissions checked by the HTTP layer.
const (
	PermAllocationRun = "allocation:run"
	PermOverrideWrite = "override:write"
	PermReportView    = "report:view"
	PermAuditView     = "audit:view"
)

// DefaultPolicy: viewers read reports, officers also allocate and override,
// admins hold everything including audit:view.
var DefaultPolicy = Policy{
	RoleViewer: {
		PermReportView,
	},
	RoleOfficer: {
		PermAllocationRun,
		PermOverrideWrite,
		PermReportView,
	},
	RoleAdmin: {
		"*",
	},
}
