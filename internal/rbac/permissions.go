package rbac

import (
	"slices"
)

// FullAccess is the universal grant. Holding it satisfies every permission check.
const FullAccess = "admin.full_access"

const (
	PermProductsView   = "products.view"
	PermProductsCreate = "products.create"
	PermProductsEdit   = "products.edit"
	PermProductsDelete = "products.delete"

	PermCategoriesView   = "categories.view"
	PermCategoriesCreate = "categories.create"
	PermCategoriesEdit   = "categories.edit"
	PermCategoriesDelete = "categories.delete"

	PermOrdersView   = "orders.view"
	PermOrdersCreate = "orders.create"
	PermOrdersEdit   = "orders.edit"
	PermOrdersDelete = "orders.delete"
	PermOrdersExport = "orders.export"

	PermCustomersView   = "customers.view"
	PermCustomersCreate = "customers.create"
	PermCustomersEdit   = "customers.edit"
	PermCustomersDelete = "customers.delete"

	PermReviewsView     = "reviews.view"
	PermReviewsModerate = "reviews.moderate"
	PermReviewsDelete   = "reviews.delete"

	PermCommentsView     = "comments.view"
	PermCommentsModerate = "comments.moderate"
	PermCommentsDelete   = "comments.delete"

	PermBannersView   = "banners.view"
	PermBannersCreate = "banners.create"
	PermBannersEdit   = "banners.edit"
	PermBannersDelete = "banners.delete"

	PermPagesView   = "pages.view"
	PermPagesCreate = "pages.create"
	PermPagesEdit   = "pages.edit"
	PermPagesDelete = "pages.delete"

	PermPromotionsView   = "promotions.view"
	PermPromotionsCreate = "promotions.create"
	PermPromotionsEdit   = "promotions.edit"
	PermPromotionsDelete = "promotions.delete"

	PermSettingsView = "settings.view"
	PermSettingsEdit = "settings.edit"

	PermAnalyticsView = "analytics.view"

	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermRolesView = "roles.view"
)

// allPermissions is every grantable permission except FullAccess.
var allPermissions = []string{
	PermProductsView, PermProductsCreate, PermProductsEdit, PermProductsDelete,
	PermCategoriesView, PermCategoriesCreate, PermCategoriesEdit, PermCategoriesDelete,
	PermOrdersView, PermOrdersCreate, PermOrdersEdit, PermOrdersDelete, PermOrdersExport,
	PermCustomersView, PermCustomersCreate, PermCustomersEdit, PermCustomersDelete,
	PermReviewsView, PermReviewsModerate, PermReviewsDelete,
	PermCommentsView, PermCommentsModerate, PermCommentsDelete,
	PermBannersView, PermBannersCreate, PermBannersEdit, PermBannersDelete,
	PermPagesView, PermPagesCreate, PermPagesEdit, PermPagesDelete,
	PermPromotionsView, PermPromotionsCreate, PermPromotionsEdit, PermPromotionsDelete,
	PermSettingsView, PermSettingsEdit,
	PermAnalyticsView,
	PermUsersView, PermUsersCreate, PermUsersEdit, PermUsersDelete,
	PermRolesView,
}

// AllPermissions returns a copy of every grantable permission, excluding FullAccess.
func AllPermissions() []string {
	return slices.Clone(allPermissions)
}

// PermissionSet is an unordered set of permission strings.
type PermissionSet map[string]struct{}

func NewPermissionSet(perms ...string) PermissionSet {
	s := make(PermissionSet, len(perms))
	s.Add(perms...)
	return s
}

func (s PermissionSet) Add(perms ...string) {
	for _, p := range perms {
		s[p] = struct{}{}
	}
}

func (s PermissionSet) Remove(perms ...string) {
	for _, p := range perms {
		delete(s, p)
	}
}

func (s PermissionSet) Has(perm string) bool {
	_, ok := s[perm]
	return ok
}

func (s PermissionSet) Clone() PermissionSet {
	c := make(PermissionSet, len(s))
	for p := range s {
		c[p] = struct{}{}
	}
	return c
}

// Slice returns the permissions sorted, so encoded tokens and responses are stable.
func (s PermissionSet) Slice() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
