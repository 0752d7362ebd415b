package rbac

import "slices"

// Role is one of a closed set of admin roles. A principal holds exactly one.
type Role string

const (
	RoleSuperAdmin    Role = "SUPER_ADMIN"
	RoleAdministrator Role = "ADMINISTRATOR"
	RoleManager       Role = "MANAGER"
	RoleCRMManager    Role = "CRM_MANAGER"
)

var roles = []Role{RoleSuperAdmin, RoleAdministrator, RoleManager, RoleCRMManager}

// ParseRole validates a stored or requested role identifier.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if slices.Contains(roles, r) {
		return r, true
	}
	return "", false
}

func (r Role) String() string {
	return string(r)
}

// RoleTable maps roles to their static grants. It is built once at startup
// and never mutated; all accessors hand out copies.
type RoleTable struct {
	grants map[Role]PermissionSet
	known  PermissionSet
}

// NewRoleTable builds the store's role table.
func NewRoleTable() *RoleTable {
	managerGrants := []string{
		PermProductsView, PermProductsCreate, PermProductsEdit, PermProductsDelete,
		PermCategoriesView, PermCategoriesCreate, PermCategoriesEdit, PermCategoriesDelete,
		PermOrdersView, PermOrdersCreate, PermOrdersEdit, PermOrdersExport,
		PermCustomersView,
		PermReviewsView, PermReviewsModerate,
		PermCommentsView, PermCommentsModerate,
		PermBannersView, PermBannersCreate, PermBannersEdit, PermBannersDelete,
		PermPagesView, PermPagesCreate, PermPagesEdit, PermPagesDelete,
		PermPromotionsView, PermPromotionsCreate, PermPromotionsEdit, PermPromotionsDelete,
		PermAnalyticsView,
	}

	crmGrants := []string{
		PermCustomersView, PermCustomersCreate, PermCustomersEdit,
		PermOrdersView, PermOrdersEdit,
		PermReviewsView, PermReviewsModerate,
		PermCommentsView, PermCommentsModerate,
		PermPromotionsView,
		PermAnalyticsView,
	}

	return newRoleTable(map[Role][]string{
		RoleSuperAdmin:    append([]string{FullAccess}, allPermissions...),
		RoleAdministrator: allPermissions,
		RoleManager:       managerGrants,
		RoleCRMManager:    crmGrants,
	})
}

func newRoleTable(grants map[Role][]string) *RoleTable {
	t := &RoleTable{
		grants: make(map[Role]PermissionSet, len(grants)),
		known:  NewPermissionSet(allPermissions...),
	}
	t.known.Add(FullAccess)
	for role, perms := range grants {
		t.grants[role] = NewPermissionSet(perms...)
	}
	return t
}

// Permissions returns the static grants of a role. Unknown roles get an empty set.
func (t *RoleTable) Permissions(role Role) PermissionSet {
	grants, ok := t.grants[role]
	if !ok {
		return PermissionSet{}
	}
	return grants.Clone()
}

// IsKnown reports whether perm is a grantable permission or FullAccess.
func (t *RoleTable) IsKnown(perm string) bool {
	return t.known.Has(perm)
}

// Roles lists the roles in declaration order.
func (t *RoleTable) Roles() []Role {
	return slices.Clone(roles)
}
