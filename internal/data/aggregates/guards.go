package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
	"gorm.io/gorm"
)

// CASGuard provides compare-and-set helpers for aggregate writes.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByState updates a row only while its state is one of allowedStates.
func (g CASGuard) UpdateByState(dbc dbctx.Context, table string, id uuid.UUID, allowedStates []string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateByState")
	}
	if len(allowedStates) == 0 {
		return false, ValidationError("allowedStates must not be empty")
	}
	res := db.Table(table).
		Where("id = ? AND state IN ?", id, allowedStates).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}

// RequireStateAllowed validates the current state against allowed values.
func RequireStateAllowed(current string, allowed ...string) error {
	current = strings.TrimSpace(current)
	if len(allowed) == 0 {
		return ValidationError("allowed states cannot be empty")
	}
	for _, s := range allowed {
		if strings.EqualFold(current, strings.TrimSpace(s)) {
			return nil
		}
	}
	return ConflictError("state transition not allowed")
}

// RequireCountMatch cross-checks a denormalized counter against a fresh
// count. A mismatch means the lineage is corrupt, not stale.
func RequireCountMatch(stored int, counted int64, what string) error {
	if int64(stored) != counted {
		return InvariantError(strings.TrimSpace(what) + " mismatch")
	}
	return nil
}
