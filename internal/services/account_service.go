package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusstay_echo/internal/access"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
)

const minPasswordLength = 8

// SessionIdentity is what a verified session cookie tells us about the caller
type SessionIdentity struct {
	UID   string
	Email string
	Name  string
}

type AccountService struct {
	db        *gorm.DB
	identity  IdentityProvisioner
	inviteTTL time.Duration
	now       func() time.Time
}

func NewAccountService(db *gorm.DB, identity IdentityProvisioner, inviteTTL time.Duration) *AccountService {
	return &AccountService{db: db, identity: identity, inviteTTL: inviteTTL, now: utcNow}
}

// issueInvite gives an invited user a fresh activation token. Only the bcrypt hash is
// stored; the returned token is "<user id>.<secret>".
func issueInvite(tx *gorm.DB, user *models.User, ttl time.Duration, now time.Time) (string, error) {
	secret := strings.ReplaceAll(uuid.NewString(), "-", "")
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	expires := now.Add(ttl)
	user.InviteTokenHash = string(hash)
	user.InviteExpiresAt = &expires
	if err := tx.Model(user).Updates(map[string]interface{}{
		"invite_token_hash": user.InviteTokenHash,
		"invite_expires_at": expires,
	}).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%s", user.ID, secret), nil
}

func splitInviteToken(token string) (uint, string, bool) {
	idPart, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || secret == "" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return 0, "", false
	}
	return uint(id), secret, true
}

// ActivateInvitedStudent turns an invited account into an active one with a sign-in credential
func (s *AccountService) ActivateInvitedStudent(ctx context.Context, token, password string) (*models.User, error) {
	userID, secret, ok := splitInviteToken(token)
	if !ok {
		return nil, newError(KindValidation, "invalid_token", "Invalid activation link.")
	}
	if len(password) < minPasswordLength {
		return nil, validationError("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	now := s.now()
	var user models.User
	var createdUID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindValidation, "invalid_token", "Invalid activation link.")
		}
		if err != nil {
			return err
		}
		if user.AccountStatus != models.AccountStatusInvited {
			return newError(KindConflict, "already_active", "This account is already active. Please log in.")
		}
		if user.InviteTokenHash == "" || bcrypt.CompareHashAndPassword([]byte(user.InviteTokenHash), []byte(secret)) != nil {
			return newError(KindValidation, "invalid_token", "Invalid activation link.")
		}
		if user.InviteExpiresAt == nil || user.InviteExpiresAt.Before(now) {
			return newError(KindValidation, "token_expired", "This activation link has expired. Ask the property owner to resend it.")
		}

		if s.identity == nil {
			return newError(KindGatewayUnavailable, "identity_unavailable", "Account activation is not available right now.")
		}
		uid, err := s.identity.CreateIdentity(ctx, user.Email, password, user.Name)
		if err != nil {
			return &AppError{Kind: KindGatewayUnavailable, Code: "identity_unavailable", Message: "Could not create your sign-in account. Please try again.", Err: err}
		}
		createdUID = uid

		user.AccountStatus = models.AccountStatusActive
		user.FirebaseUID = &uid
		user.InviteTokenHash = ""
		user.InviteExpiresAt = nil
		user.ActivatedAt = &now
		return tx.Model(&user).Updates(map[string]interface{}{
			"account_status":    user.AccountStatus,
			"firebase_uid":      uid,
			"invite_token_hash": "",
			"invite_expires_at": nil,
			"activated_at":      now,
		}).Error
	})
	if err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			applog.Log.Errorf("Activation failed for user %d: %v", userID, err)
		}
		if createdUID != "" {
			// the account row was rolled back, so the sign-in identity must go too
			if delErr := s.identity.DeleteIdentity(ctx, createdUID); delErr != nil {
				applog.Log.Errorf("Failed to remove orphaned identity %s for user %d: %v", createdUID, userID, delErr)
			}
		}
		return nil, asAppError(err)
	}

	applog.Log.Infof("Account %d activated", user.ID)
	return &user, nil
}

// ResolvePrincipal maps a verified session to a platform user. An active account created
// before its first sign-in is linked by email on that sign-in.
func (s *AccountService) ResolvePrincipal(ctx context.Context, id SessionIdentity) (*access.Principal, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("firebase_uid = ?", id.UID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && id.Email != "" {
		err = db.Where("LOWER(email) = ? AND firebase_uid IS NULL AND account_status = ?",
			strings.ToLower(id.Email), models.AccountStatusActive).First(&user).Error
		if err == nil {
			uid := id.UID
			user.FirebaseUID = &uid
			if err = db.Model(&user).Update("firebase_uid", uid).Error; err == nil {
				applog.Log.Infof("Linked sign-in identity to user %d", user.ID)
			}
		}
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindUnauthenticated, "unknown_user", "No account is registered for this sign-in.")
	}
	if err != nil {
		return nil, persistenceError(err)
	}
	if user.AccountStatus != models.AccountStatusActive {
		return nil, newError(KindUnauthenticated, "inactive", "Your account has not been activated yet.")
	}

	return &access.Principal{UserID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role}, nil
}
