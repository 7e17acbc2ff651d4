package rbac

// Role represents a named capability bucket. Roles are statically
// provisioned; the engine never creates or deletes them.
type Role struct {
	ID   int64
	Name string
}

// Permission represents an atomic capability. Only its association to roles
// is ever mutated.
type Permission struct {
	ID   int64
	Name string
}

// ImpactedUser is one row of an impact set: a user whose assigned role
// currently carries a given permission.
type ImpactedUser struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Role     string `json:"role"`
}

// GraphUser is a user node in the full graph view.
type GraphUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// RoleGrant is a role→permission edge in the full graph view.
type RoleGrant struct {
	Role       string `json:"name"`
	Permission string `json:"permission"`
}

// GraphView is the complete graph snapshot consumed by the visualization
// frontend.
type GraphView struct {
	Users []GraphUser `json:"users"`
	Roles []RoleGrant `json:"roles"`
}
