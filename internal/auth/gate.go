package auth

import (
	"context"
	"errors"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/warungclub/warung/internal/catalog"
)

// ErrAuthorizationDenied is returned when no staff PIN (nor the super-admin
// override) authorizes the requested action.
var ErrAuthorizationDenied = errors.New("authorization denied")

// elevatedRoles may approve destructive actions such as voiding an order.
var elevatedRoles = map[string]bool{
	"owner":      true,
	"manager":    true,
	"supervisor": true,
}

// Gate answers PIN challenges against the branch staff roster. PINs are
// stored bcrypt-hashed; the gate never sees or keeps the plaintext beyond
// the comparison.
type Gate struct {
	staff        catalog.StaffRepo
	superPINHash string
	logger       apt.Logger
}

// NewGate builds a Gate. superPINHash is an optional bcrypt hash of the
// super-admin override PIN, typically loaded from configuration; empty
// disables the override.
func NewGate(staff catalog.StaffRepo, superPINHash string, logger apt.Logger) *Gate {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Gate{
		staff:        staff,
		superPINHash: superPINHash,
		logger:       logger,
	}
}

// RequestElevatedAction allows the action when the PIN belongs to a staff
// member with an elevated role in the branch, or matches the super-admin
// override. It returns ErrAuthorizationDenied otherwise.
func (g *Gate) RequestElevatedAction(ctx context.Context, branchID uuid.UUID, pin, reason string) error {
	if pin == "" {
		return ErrAuthorizationDenied
	}

	if member, err := g.match(ctx, branchID, pin); err == nil && member != nil {
		if elevatedRoles[member.Role] {
			g.logger.Info("elevated action authorized",
				"branch_id", branchID.String(),
				"staff_id", member.ID.String(),
				"role", member.Role,
				"reason", reason,
			)
			return nil
		}
		g.logger.Info("elevated action denied: role not elevated",
			"branch_id", branchID.String(),
			"staff_id", member.ID.String(),
			"role", member.Role,
			"reason", reason,
		)
		return ErrAuthorizationDenied
	}

	if g.superPINHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(g.superPINHash), []byte(pin)) == nil {
			g.logger.Info("elevated action authorized by super admin",
				"branch_id", branchID.String(),
				"reason", reason,
			)
			return nil
		}
	}

	g.logger.Info("elevated action denied",
		"branch_id", branchID.String(),
		"reason", reason,
	)
	return ErrAuthorizationDenied
}

// Identify resolves a PIN to the branch staff member it belongs to.
// Attendance clock-in uses this; any role is acceptable.
func (g *Gate) Identify(ctx context.Context, branchID uuid.UUID, pin string) (*catalog.Staff, error) {
	if pin == "" {
		return nil, ErrAuthorizationDenied
	}

	member, err := g.match(ctx, branchID, pin)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrAuthorizationDenied
	}
	return member, nil
}

func (g *Gate) match(ctx context.Context, branchID uuid.UUID, pin string) (*catalog.Staff, error) {
	roster, err := g.staff.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}

	for _, member := range roster {
		if member.PINHash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(member.PINHash), []byte(pin)) == nil {
			return member, nil
		}
	}
	return nil, nil
}

// HashPIN produces the bcrypt hash stored on a staff record.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
