package accesscontrol

import "github.com/confetex/taller-backend/pkg/enums"

// Capability names one gated operation group.
type Capability string

const (
	CapOrdersPlace    Capability = "orders:place"
	CapOrdersCancel   Capability = "orders:cancel"
	CapProductsWrite  Capability = "products:write"
	CapMaterialsWrite Capability = "materials:write"
	CapReportsRead    Capability = "reports:read"
)

// capabilitiesByRole is the single role-to-capability authority. Read-only
// catalog and directory lookups are open to any authenticated staff account.
var capabilitiesByRole = map[enums.StaffRole][]Capability{
	enums.StaffRoleAdmin: {
		CapOrdersPlace,
		CapOrdersCancel,
		CapProductsWrite,
		CapMaterialsWrite,
		CapReportsRead,
	},
	enums.StaffRoleSales: {
		CapOrdersPlace,
		CapOrdersCancel,
		CapReportsRead,
	},
	enums.StaffRoleProduction: {
		CapMaterialsWrite,
	},
	enums.StaffRoleWarehouse: {
		CapProductsWrite,
		CapMaterialsWrite,
	},
}

// RoleHas reports whether the role carries the capability.
func RoleHas(role enums.StaffRole, capability Capability) bool {
	for _, candidate := range capabilitiesByRole[role] {
		if candidate == capability {
			return true
		}
	}
	return false
}

// Capabilities returns the capability set for a role.
func Capabilities(role enums.StaffRole) []Capability {
	caps := capabilitiesByRole[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
