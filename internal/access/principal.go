package access

import (
	"errors"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusstay_echo/internal/models"
)

const contextKey = "principal"

// ErrNotOwner is returned when a property does not exist, is deleted, or belongs to someone else.
var ErrNotOwner = errors.New("property not owned by caller")

// Principal is the authenticated caller, resolved once per request at the boundary.
type Principal struct {
	UserID uint
	Email  string
	Name   string
	Role   models.UserRole
}

// HasRole reports whether the caller acts under any of the given roles
func (p *Principal) HasRole(roles ...models.UserRole) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// OwnsProperty loads the property if the caller owns it. With lock set the row is held
// FOR UPDATE until tx ends, so callers can re-check invariants that depend on it.
func (p *Principal) OwnsProperty(tx *gorm.DB, propertyID uint, lock bool) (*models.Property, error) {
	if p == nil || !p.HasRole(models.RolePropertyOwner) {
		return nil, ErrNotOwner
	}
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var property models.Property
	err := q.Where("id = ? AND owner_id = ?", propertyID, p.UserID).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotOwner
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// Set stores the principal on the echo context
func Set(c echo.Context, p *Principal) {
	c.Set(contextKey, p)
}

// FromContext returns the principal stored by the auth middleware, or nil
func FromContext(c echo.Context) *Principal {
	p, _ := c.Get(contextKey).(*Principal)
	return p
}
