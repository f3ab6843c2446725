package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/posengine-backend/pkg/enums"
)

// Permissions are the per-user grants managed by the back office.
type Permissions struct {
	ManageOtherBranchesStock bool `json:"manage_other_branches_stock,omitempty"`
	ViewAllBranchesSales     bool `json:"view_all_branches_sales,omitempty"`
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	BranchID    uuid.UUID
	Role        enums.MemberRole
	Permissions Permissions
	SessionID   string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID        `json:"user_id"`
	BranchID    uuid.UUID        `json:"branch_id"`
	Role        enums.MemberRole `json:"role"`
	Permissions Permissions      `json:"perms"`
	SessionID   string           `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Capability converts verified claims into the explicit capability object
// passed to every branch-scoped operation.
func (c *AccessTokenClaims) Capability() Capability {
	session := c.SessionID
	if session == "" {
		session = c.ID
	}
	return Capability{
		UserID:      c.UserID,
		BranchID:    c.BranchID,
		Role:        c.Role,
		Permissions: c.Permissions,
		SessionID:   session,
	}
}
