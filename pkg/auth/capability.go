package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

// Capability is what the caller is allowed to do. It is built once per
// request from verified claims and handed explicitly to the stock, cart and
// sales services.
type Capability struct {
	UserID      uuid.UUID
	BranchID    uuid.UUID
	Role        enums.MemberRole
	Permissions Permissions
	SessionID   string
}

// CanAccessBranch reports whether branchID is the home branch or the caller
// holds the cross-branch stock grant.
func (c Capability) CanAccessBranch(branchID uuid.UUID) bool {
	if branchID == c.BranchID {
		return true
	}
	return c.Permissions.ManageOtherBranchesStock
}

// RequireBranch fails with PermissionDenied for a foreign branch without the grant.
func (c Capability) RequireBranch(branchID uuid.UUID) error {
	if c.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing capability")
	}
	if !c.CanAccessBranch(branchID) {
		return pkgerrors.New(pkgerrors.CodePermissionDenied, "branch access requires cross-branch permission").
			WithDetails(map[string]any{"branch_id": branchID.String()})
	}
	return nil
}

// CanViewSalesOf reports whether sales of branchID are visible.
func (c Capability) CanViewSalesOf(branchID uuid.UUID) bool {
	return branchID == c.BranchID || c.Permissions.ViewAllBranchesSales
}

// RequireRole fails unless the caller holds one of roles.
func (c Capability) RequireRole(roles ...enums.MemberRole) error {
	for _, role := range roles {
		if c.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodePermissionDenied, "insufficient role")
}
