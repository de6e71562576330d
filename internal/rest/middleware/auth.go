package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Role is a caller's permission grant, matching spec.md §9's "static table"
// redesign of the source's decorator-based RBAC.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBilling  Role = "billing_operator"
	RoleReadOnly Role = "read_only"
)

// action is one verb the permission matrix grants per (role, resource).
type action string

const (
	actionRead  action = "read"
	actionWrite action = "write"
)

// permissionMatrix is the static roles × resources × actions table spec.md
// §9 calls for in place of the source's decorator-based audit/RBAC: "model
// as... an explicit authorize(user, resource, action) -> bool call at the
// top of each mutating operation. The permission matrix... is a static
// table." Resource names match the API's route groups (account,
// subscription, invoice, payment, credit, usage, webhook).
var permissionMatrix = map[Role]map[string]map[action]bool{
	RoleAdmin: {
		"*": {actionRead: true, actionWrite: true},
	},
	RoleBilling: {
		"account":      {actionRead: true, actionWrite: true},
		"subscription": {actionRead: true, actionWrite: true},
		"invoice":      {actionRead: true, actionWrite: true},
		"payment":      {actionRead: true, actionWrite: true},
		"credit":       {actionRead: true, actionWrite: true},
		"usage":        {actionRead: true, actionWrite: true},
		"webhook":      {actionRead: true},
	},
	RoleReadOnly: {
		"*": {actionRead: true},
	},
}

// authorize implements spec.md §9's explicit permission check: a pure
// function over (role, resource, action) consulting the static matrix
// above, called at the top of every mutating handler. It deliberately
// takes a Role rather than a full user/session object — real auth token
// issuance and session lookup are out of spec.md §1's scope, left to the
// caller's API-gateway layer.
func authorize(role Role, resource string, act action) bool {
	grants, ok := permissionMatrix[role]
	if !ok {
		return false
	}
	if wildcard, ok := grants["*"]; ok && wildcard[act] {
		return true
	}
	return grants[resource][act]
}

// roleHeader is the header a fronting API gateway is expected to set once
// it has resolved the caller's identity and role — this engine performs no
// token validation itself (spec.md §1: "auth token issuance... standard and
// uninteresting").
const roleHeader = "X-Billing-Role"

const ctxRoleKey = "billing_role"

// ResolveRole reads the caller's role off the trusted upstream header and
// stashes it on the gin context for RequireRole to consult. Defaults to
// RoleReadOnly when absent, the conservative choice.
func ResolveRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c.GetHeader(roleHeader))
		switch role {
		case RoleAdmin, RoleBilling, RoleReadOnly:
		default:
			role = RoleReadOnly
		}
		c.Set(ctxRoleKey, role)
		c.Next()
	}
}

// RequireRole wraps a handler with the spec.md §9 authorize() call for one
// (resource, action) pair, aborting with 403 on denial.
func RequireRole(resource string, write bool) gin.HandlerFunc {
	act := actionRead
	if write {
		act = actionWrite
	}
	return func(c *gin.Context) {
		role, _ := c.Get(ctxRoleKey)
		r, _ := role.(Role)
		if !authorize(r, resource, act) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}
