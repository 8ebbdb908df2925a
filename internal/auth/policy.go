package auth

import (
	"github.com/frahmantamala/training-records/internal"
)

// The functions below are the whole access policy. Each switch covers every Role;
// an unrecognised role is always denied.

// CanListUsers allows only admins to see the employee directory.
func CanListUsers(id Identity) error {
	switch id.Role {
	case RoleAdmin:
		return nil
	case RoleEmployee, RoleSupervisor:
		return internal.ErrForbidden
	default:
		return internal.ErrForbidden
	}
}

// CanManageUsers covers user creation and update.
func CanManageUsers(id Identity) error {
	return CanListUsers(id)
}

// CanDeleteUser is admin-only and never succeeds against an admin account.
func CanDeleteUser(id Identity, targetRole Role) error {
	if targetRole == RoleAdmin {
		return internal.ErrAdminUndeletable
	}
	switch id.Role {
	case RoleAdmin:
		return nil
	case RoleEmployee, RoleSupervisor:
		return internal.ErrForbidden
	default:
		return internal.ErrForbidden
	}
}

// CanChangeAccount guards role and status changes. An admin account keeps its
// role and stays active, otherwise demotion would open it to deletion.
func CanChangeAccount(id Identity, currentRole, newRole Role, deactivate bool) error {
	switch id.Role {
	case RoleAdmin:
	case RoleEmployee, RoleSupervisor:
		return internal.ErrForbidden
	default:
		return internal.ErrForbidden
	}
	if currentRole == RoleAdmin && (newRole != RoleAdmin || deactivate) {
		return internal.ErrAdminLocked
	}
	return nil
}

// TrainingScope returns the owner filter a caller is bound to when listing
// training records. nil means every owner. Employees are always pinned to
// themselves, whatever filter they asked for.
func TrainingScope(id Identity) (*int64, error) {
	switch id.Role {
	case RoleAdmin, RoleSupervisor:
		return nil, nil
	case RoleEmployee:
		own := id.ID
		return &own, nil
	default:
		return nil, internal.ErrForbidden
	}
}

func CanViewTrainingRecord(id Identity, ownerID int64) error {
	switch id.Role {
	case RoleAdmin, RoleSupervisor:
		return nil
	case RoleEmployee:
		if id.ID == ownerID {
			return nil
		}
		return internal.ErrForbidden
	default:
		return internal.ErrForbidden
	}
}

// CanCreateTrainingRecord lets callers log their own records; admins may log for anyone.
func CanCreateTrainingRecord(id Identity, ownerID int64) error {
	return ownerOrAdmin(id, ownerID)
}

func CanUpdateTrainingRecord(id Identity, ownerID int64) error {
	return ownerOrAdmin(id, ownerID)
}

// CanDeleteTrainingRecord is admin-only in every view, owners included.
func CanDeleteTrainingRecord(id Identity, _ int64) error {
	switch id.Role {
	case RoleAdmin:
		return nil
	case RoleEmployee, RoleSupervisor:
		return internal.ErrForbidden
	default:
		return internal.ErrForbidden
	}
}

// CanViewStatistics gates the organisation-wide monitoring report.
func CanViewStatistics(id Identity) error {
	switch id.Role {
	case RoleAdmin, RoleSupervisor:
		return nil
	case RoleEmployee:
		return internal.ErrForbidden
	default:
		return internal.ErrForbidden
	}
}

func ownerOrAdmin(id Identity, ownerID int64) error {
	switch id.Role {
	case RoleAdmin:
		return nil
	case RoleEmployee, RoleSupervisor:
		if id.ID == ownerID {
			return nil
		}
		return internal.ErrForbidden
	default:
		return internal.ErrForbidden
	}
}
