// Package scope maps an authenticated identity to the visibility filter the
// chunk store enforces. Resolution is pure and happens before any retrieval
// touches stored data.
package scope

import (
	"github.com/doclens/doclens/internal/domain/commonModels"
)

// Resolve returns the access scope for one request. Unknown roles fail
// closed to member visibility; superadmin is a platform operations role and
// never sees document content.
func Resolve(identity commonModels.Identity) commonModels.AccessScope {
	switch identity.Role {
	case commonModels.RoleSuperAdmin:
		return commonModels.AccessScope{DenyAll: true}
	case commonModels.RoleTenantAdmin:
		return commonModels.AccessScope{
			TenantId: identity.TenantId,
		}
	case commonModels.RoleDeptManager:
		return commonModels.AccessScope{
			TenantId:     identity.TenantId,
			DepartmentId: identity.DepartmentId,
		}
	case commonModels.RoleDivisionLead:
		return commonModels.AccessScope{
			TenantId:     identity.TenantId,
			DepartmentId: identity.DepartmentId,
			DivisionId:   identity.DivisionId,
		}
	case commonModels.RoleMember:
		return memberScope(identity)
	default:
		return memberScope(identity)
	}
}

func memberScope(identity commonModels.Identity) commonModels.AccessScope {
	return commonModels.AccessScope{
		TenantId:     identity.TenantId,
		DepartmentId: identity.DepartmentId,
		DivisionId:   identity.DivisionId,
		OwnerId:      identity.UserId,
	}
}
