package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusstay_echo/internal/access"
	"campusstay_echo/internal/config"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
)

// LevySettings are the listing-fee terms applied to every room
type LevySettings struct {
	FeePerRoom decimal.Decimal
	Currency   string
	Validity   time.Duration
	IntentTTL  time.Duration
}

func LevySettingsFromConfig(cfg *config.Config) LevySettings {
	return LevySettings{
		FeePerRoom: cfg.LevyFeePerRoom,
		Currency:   cfg.Currency,
		Validity:   cfg.LevyValidity(),
		IntentTTL:  cfg.PaymentIntentTTL,
	}
}

type LevyService struct {
	db      *gorm.DB
	gateway PaymentVerifier
	levy    LevySettings
	now     func() time.Time
}

func NewLevyService(db *gorm.DB, gateway PaymentVerifier, levy LevySettings) *LevyService {
	return &LevyService{db: db, gateway: gateway, levy: levy, now: utcNow}
}

// IntentView is what the checkout widget needs to open a payment
type IntentView struct {
	Intent      models.PaymentIntent
	AmountMinor int64
	Rooms       []models.Room
}

// ownedRooms scopes a room query to live properties of ownerID
func ownedRooms(tx *gorm.DB, ownerID uint) *gorm.DB {
	return tx.Model(&models.Room{}).
		Joins("JOIN properties ON properties.id = rooms.property_id AND properties.deleted_at IS NULL").
		Where("properties.owner_id = ?", ownerID)
}

// BuildIntent prices every room of the owner that needs a levy, optionally within one
// property, and persists an open intent bound to exactly those rooms.
func (s *LevyService) BuildIntent(ctx context.Context, p *access.Principal, propertyID *uint) (*models.PaymentIntent, error) {
	if p == nil {
		return nil, newError(KindUnauthenticated, "unauthenticated", "Please log in to continue.")
	}
	if !p.HasRole(models.RolePropertyOwner) {
		return nil, newError(KindAuthorization, "forbidden", "Only property owners can pay room levies.")
	}

	db := s.db.WithContext(ctx)
	if propertyID != nil {
		if _, err := p.OwnsProperty(db, *propertyID, false); err != nil {
			if errors.Is(err, access.ErrNotOwner) {
				return nil, newError(KindNotFound, "property_not_found", "Property not found.")
			}
			return nil, persistenceError(err)
		}
	}

	now := s.now()
	var intent models.PaymentIntent
	err := db.Transaction(func(tx *gorm.DB) error {
		// Room registration locks the property too, so intents for one owner are built serially
		var locked []models.Property
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("owner_id = ?", p.UserID).Order("id").Find(&locked).Error; err != nil {
			return err
		}

		q := ownedRooms(tx, p.UserID)
		if propertyID != nil {
			q = q.Where("rooms.property_id = ?", *propertyID)
		}
		var rooms []models.Room
		if err := q.Order("rooms.id").Find(&rooms).Error; err != nil {
			return err
		}

		var ids []uint
		pending, expired := 0, 0
		for _, r := range rooms {
			if !r.LevyDue(now) {
				continue
			}
			ids = append(ids, r.ID)
			if r.LevyPaymentStatus == models.LevyStatusPending {
				pending++
			} else {
				expired++
			}
		}
		if len(ids) == 0 {
			return newError(KindConflict, "nothing_due", "No rooms need a levy payment right now.")
		}

		intent = models.PaymentIntent{
			Reference:    NewLevyReference(now),
			OwnerID:      p.UserID,
			PropertyID:   propertyID,
			Amount:       s.levy.FeePerRoom.Mul(decimal.NewFromInt(int64(len(ids)))),
			Currency:     s.levy.Currency,
			RoomIDs:      ids,
			PendingRooms: pending,
			ExpiredRooms: expired,
			Status:       models.PaymentIntentStatusOpen,
			ExpiresAt:    now.Add(s.levy.IntentTTL),
		}
		if err := tx.Create(&intent).Error; err != nil {
			return err
		}
		return supersedeIntents(tx, p.UserID, intent.ID, ids)
	})
	if err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			applog.Log.Errorf("Failed to create levy intent: %v", err)
		}
		return nil, asAppError(err)
	}
	return &intent, nil
}

// supersedeIntents expires the owner's other open intents that share a room with roomIDs,
// leaving one payable intent per room.
func supersedeIntents(tx *gorm.DB, ownerID, keepID uint, roomIDs []uint) error {
	var open []models.PaymentIntent
	if err := tx.Where("owner_id = ? AND status = ? AND id <> ?", ownerID, models.PaymentIntentStatusOpen, keepID).
		Find(&open).Error; err != nil {
		return err
	}

	covered := make(map[uint]bool, len(roomIDs))
	for _, id := range roomIDs {
		covered[id] = true
	}
	var stale []uint
	for _, other := range open {
		for _, id := range other.RoomIDs {
			if covered[id] {
				stale = append(stale, other.ID)
				break
			}
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := tx.Model(&models.PaymentIntent{}).Where("id IN ?", stale).
		Update("status", models.PaymentIntentStatusExpired).Error; err != nil {
		return err
	}
	applog.Log.Infof("Superseded %d open levy intents of owner %d", len(stale), ownerID)
	return nil
}

// GetIntent returns one of the caller's open intents with the rooms it covers
func (s *LevyService) GetIntent(ctx context.Context, p *access.Principal, reference string) (*IntentView, error) {
	if p == nil {
		return nil, newError(KindUnauthenticated, "unauthenticated", "Please log in to continue.")
	}
	var intent models.PaymentIntent
	err := s.db.WithContext(ctx).Where("reference = ? AND owner_id = ?", reference, p.UserID).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindNotFound, "intent_not_found", "Payment not found.")
	}
	if err != nil {
		return nil, persistenceError(err)
	}
	if err := checkIntentOpen(intent, s.now()); err != nil {
		return nil, err
	}

	var rooms []models.Room
	if len(intent.RoomIDs) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", []uint(intent.RoomIDs)).Order("id").Find(&rooms).Error; err != nil {
			return nil, persistenceError(err)
		}
	}
	return &IntentView{Intent: intent, AmountMinor: models.MinorUnits(intent.Amount), Rooms: rooms}, nil
}

// VerifyRequest is the client's claim after the checkout widget reports success.
// Counts and discount are only shape-checked; the stored intent is authoritative.
type VerifyRequest struct {
	Reference    string
	Amount       decimal.Decimal
	PendingRooms *int
	ExpiredRooms *int
	Discount     *decimal.Decimal
}

type VerifyResult struct {
	Reference    string `json:"reference"`
	PaymentID    uint   `json:"payment_id"`
	UpdatedRooms int64  `json:"updated_rooms"`
	PendingRooms int    `json:"pending_rooms"`
	ExpiredRooms int    `json:"expired_rooms"`
}

// ParseVerifyRequest decodes the verify body field by field so each problem gets its own error
func ParseVerifyRequest(body []byte) (*VerifyRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, newError(KindValidation, "invalid_json", "Invalid request body.")
	}

	req := &VerifyRequest{}
	raw, ok := fields["reference"]
	if !ok {
		return nil, newError(KindValidation, "missing_reference", "Payment reference is required.")
	}
	if err := json.Unmarshal(raw, &req.Reference); err != nil {
		return nil, newError(KindValidation, "invalid_reference", "Payment reference must be a string.")
	}
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Reference == "" {
		return nil, newError(KindValidation, "empty_reference", "Payment reference cannot be empty.")
	}

	raw, ok = fields["amount"]
	if !ok || string(raw) == "null" {
		return nil, newError(KindValidation, "missing_amount", "Payment amount is required.")
	}
	if err := req.Amount.UnmarshalJSON(raw); err != nil {
		return nil, newError(KindValidation, "invalid_amount", "Payment amount must be a number.")
	}
	if !req.Amount.IsPositive() {
		return nil, newError(KindValidation, "invalid_amount", "Payment amount must be greater than zero.")
	}

	for _, f := range []struct {
		name string
		dst  **int
	}{{"pending_rooms", &req.PendingRooms}, {"expired_rooms", &req.ExpiredRooms}} {
		raw, ok := fields[f.name]
		if !ok || string(raw) == "null" {
			continue
		}
		var n int
		if err := json.Unmarshal(raw, &n); err != nil || n < 0 {
			return nil, newError(KindValidation, "invalid_counts", "Room counts must be whole numbers.")
		}
		*f.dst = &n
	}

	if raw, ok := fields["discount"]; ok && string(raw) != "null" {
		var d decimal.Decimal
		if err := d.UnmarshalJSON(raw); err != nil {
			return nil, newError(KindValidation, "invalid_discount", "Discount must be a number.")
		}
		req.Discount = &d
	}
	return req, nil
}

// VerifyPayment confirms the charge with the gateway and activates the intent's rooms.
// The ledger row, the room updates and the intent status commit together or not at all.
func (s *LevyService) VerifyPayment(ctx context.Context, p *access.Principal, req *VerifyRequest) (*VerifyResult, error) {
	if p == nil {
		return nil, newError(KindUnauthenticated, "unauthenticated", "Session expired. Please log in again.")
	}
	if !p.HasRole(models.RolePropertyOwner) {
		return nil, newError(KindAuthorization, "forbidden", "Only property owners can pay room levies.")
	}

	db := s.db.WithContext(ctx)
	now := s.now()

	var intent models.PaymentIntent
	err := db.Where("reference = ?", req.Reference).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindNotFound, "intent_not_found", "No pending payment matches this reference.")
	}
	if err != nil {
		return nil, persistenceError(err)
	}
	if intent.OwnerID != p.UserID {
		return nil, newError(KindAuthorization, "forbidden", "This payment does not belong to you.")
	}
	if err := checkIntentOpen(intent, now); err != nil {
		return nil, err
	}
	if !req.Amount.Equal(intent.Amount) {
		return nil, newError(KindValidation, "amount_mismatch", "Payment amount does not match the amount due.")
	}

	verification, gwErr := s.gateway.Verify(ctx, req.Reference)
	recordVerification(s.db, req.Reference, verification, gwErr)
	if gwErr != nil {
		applog.Log.Warnf("Gateway verification failed for %s: %v", req.Reference, gwErr)
		return nil, gatewayAppError(gwErr)
	}
	if verification.Data.Amount != models.MinorUnits(req.Amount) {
		applog.Log.Warnf("Gateway amount %d does not match claim %s for %s", verification.Data.Amount, req.Amount, req.Reference)
		return nil, newError(KindValidation, "amount_mismatch", "Paid amount does not match the amount due.")
	}

	var result VerifyResult
	err = db.Transaction(func(tx *gorm.DB) error {
		var locked models.PaymentIntent
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", intent.ID).First(&locked).Error; err != nil {
			return err
		}
		if err := checkIntentOpen(locked, now); err != nil {
			return err
		}

		var rooms []models.Room
		if len(locked.RoomIDs) > 0 {
			if err := ownedRooms(tx, p.UserID).
				Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "rooms"}}).
				Where("rooms.id IN ?", []uint(locked.RoomIDs)).
				Order("rooms.id").
				Find(&rooms).Error; err != nil {
				return err
			}
		}
		var eligible []uint
		pending, expired := 0, 0
		for _, r := range rooms {
			if !r.LevyDue(now) {
				continue
			}
			eligible = append(eligible, r.ID)
			if r.LevyPaymentStatus == models.LevyStatusPending {
				pending++
			} else {
				expired++
			}
		}

		payment := models.RoomLevyPayment{
			OwnerID:         p.UserID,
			Reference:       locked.Reference,
			Amount:          locked.Amount,
			Currency:        locked.Currency,
			RoomCount:       pending + expired,
			PendingRooms:    pending,
			ExpiredRooms:    expired,
			Discount:        locked.Discount,
			Status:          models.LevyPaymentStatusCompleted,
			Method:          models.PaymentGatewayPaystack,
			GatewayResponse: verification.Data.GatewayResponse,
			PaidAt:          now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(KindConflict, "already_processed", "This payment has already been processed.")
			}
			return err
		}

		var updated int64
		if len(eligible) > 0 {
			expiry := now.Add(s.levy.Validity)
			res := tx.Model(&models.Room{}).Where("id IN ?", eligible).Updates(map[string]interface{}{
				"levy_payment_status": models.LevyStatusPaid,
				"levy_payment_id":     payment.ID,
				"payment_date":        now,
				"transaction_id":      locked.Reference,
				"payment_amount":      s.levy.FeePerRoom,
				"levy_expiry_date":    expiry,
			})
			if res.Error != nil {
				return res.Error
			}
			updated = res.RowsAffected
		}

		if err := tx.Model(&locked).Updates(map[string]interface{}{
			"status":          models.PaymentIntentStatusCompleted,
			"levy_payment_id": payment.ID,
		}).Error; err != nil {
			return err
		}

		result = VerifyResult{
			Reference:    locked.Reference,
			PaymentID:    payment.ID,
			UpdatedRooms: updated,
			PendingRooms: pending,
			ExpiredRooms: expired,
		}
		return nil
	})
	if err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			applog.Log.Errorf("Levy payment %s could not be recorded: %v", req.Reference, err)
		}
		return nil, asAppError(err)
	}

	applog.Log.Infof("Levy payment %s recorded, %d rooms activated", result.Reference, result.UpdatedRooms)
	return &result, nil
}

func checkIntentOpen(intent models.PaymentIntent, now time.Time) error {
	switch {
	case intent.Status == models.PaymentIntentStatusCompleted:
		return newError(KindConflict, "already_processed", "This payment has already been processed.")
	case intent.IsExpired(now):
		return newError(KindConflict, "intent_expired", "This payment request has expired. Please start a new payment.")
	}
	return nil
}

// recordVerification stores one gateway call. It runs on its own session so the log
// survives a rolled back business transaction.
func recordVerification(db *gorm.DB, reference string, v *GatewayVerification, gwErr error) {
	entry := models.GatewayVerificationLog{
		PaymentGateway: models.PaymentGatewayPaystack,
		Reference:      reference,
		Outcome:        "success",
	}
	if v != nil {
		entry.HTTPStatus = v.HTTPStatus
		if len(v.Raw) > 0 && json.Valid(v.Raw) {
			entry.Metadata = datatypes.JSON(v.Raw)
		}
	}
	if gwErr != nil {
		switch {
		case errors.Is(gwErr, ErrGatewayTimeout):
			entry.Outcome = "timeout"
		case errors.Is(gwErr, ErrGatewayUnavailable):
			entry.Outcome = "unavailable"
		default:
			entry.Outcome = "rejected"
		}
		if entry.Metadata == nil {
			if detail, err := json.Marshal(map[string]string{"error": gwErr.Error()}); err == nil {
				entry.Metadata = datatypes.JSON(detail)
			}
		}
	}
	if err := db.Session(&gorm.Session{NewDB: true}).Create(&entry).Error; err != nil {
		applog.Log.Errorf("Failed to record gateway verification for %s: %v", reference, err)
	}
}
