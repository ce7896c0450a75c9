package auth

import "context"

const (
	PermEmployeesRead     = "employees.read"
	PermEmployeesWrite    = "employees.write"
	PermAttendanceSelf    = "attendance.self"
	PermAttendanceManage  = "attendance.manage"
	PermLeaveSelf         = "leave.self"
	PermLeaveManage       = "leave.manage"
	PermDashboardAdmin    = "dashboard.admin"
	PermDashboardSelf     = "dashboard.self"
	PermNotificationsSelf = "notifications.self"
	PermNotificationsOps  = "notifications.manage"
	PermProfileRead       = "profile.read"
	PermAuditRead         = "audit.read"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermAttendanceSelf,
		PermLeaveSelf,
		PermDashboardSelf,
		PermNotificationsSelf,
		PermProfileRead,
	},
	RoleAdmin: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermAttendanceManage,
		PermLeaveManage,
		PermDashboardAdmin,
		PermNotificationsSelf,
		PermNotificationsOps,
		PermProfileRead,
		PermAuditRead,
	},
}

// StaticPermissions resolves permissions from RolePermissions.
type StaticPermissions struct {
	index map[string]map[string]struct{}
}

func NewStaticPermissions() *StaticPermissions {
	index := make(map[string]map[string]struct{}, len(RolePermissions))
	for role, perms := range RolePermissions {
		set := make(map[string]struct{}, len(perms))
		for _, perm := range perms {
			set[perm] = struct{}{}
		}
		index[role] = set
	}
	return &StaticPermissions{index: index}
}

func (p *StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	_, ok := p.index[role][permission]
	return ok, nil
}
