package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"campusstay_echo/internal/access"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
)

// CoveredRoom is a room paid for by a levy payment
type CoveredRoom struct {
	Room          models.Room
	PropertyName  string
	DaysRemaining int
}

// Confirmation is the receipt shown after a payment. Exactly one of LevyPayment and
// BookingPayment is set, depending on the caller's role.
type Confirmation struct {
	Role           models.UserRole
	Reference      string
	LevyPayment    *models.RoomLevyPayment
	Rooms          []CoveredRoom
	BookingPayment *models.Payment
}

type ConfirmationService struct {
	db      *gorm.DB
	gateway PaymentVerifier
	now     func() time.Time
}

func NewConfirmationService(db *gorm.DB, gateway PaymentVerifier) *ConfirmationService {
	return &ConfirmationService{db: db, gateway: gateway, now: utcNow}
}

var errConfirmationNotFound = newError(KindNotFound, "payment_not_found", "Payment not found.")

// Confirm loads the caller's payment for reference. Gateway-settled payments are checked
// with the gateway again; any doubt is reported as an error so the page is never shown.
func (s *ConfirmationService) Confirm(ctx context.Context, p *access.Principal, reference string) (*Confirmation, error) {
	if p == nil {
		return nil, newError(KindUnauthenticated, "unauthenticated", "Please log in to continue.")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, newError(KindValidation, "missing_reference", "Payment reference is missing.")
	}

	switch {
	case p.HasRole(models.RolePropertyOwner):
		return s.confirmLevy(ctx, p, reference)
	case p.HasRole(models.RoleStudent):
		return s.confirmBooking(ctx, p, reference)
	default:
		return nil, newError(KindAuthorization, "unsupported_role", "Payment confirmations are not available for your account.")
	}
}

func (s *ConfirmationService) confirmLevy(ctx context.Context, p *access.Principal, reference string) (*Confirmation, error) {
	db := s.db.WithContext(ctx)

	var payment models.RoomLevyPayment
	err := db.Where("reference = ? AND owner_id = ?", reference, p.UserID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errConfirmationNotFound
	}
	if err != nil {
		return nil, persistenceError(err)
	}
	if payment.Method == models.PaymentGatewayPaystack {
		if err := s.reverify(ctx, reference, models.MinorUnits(payment.Amount)); err != nil {
			return nil, err
		}
	}

	var rooms []models.Room
	if err := db.Preload("Property").Where("levy_payment_id = ?", payment.ID).Order("id").Find(&rooms).Error; err != nil {
		return nil, persistenceError(err)
	}
	now := s.now()
	covered := make([]CoveredRoom, 0, len(rooms))
	for _, r := range rooms {
		covered = append(covered, CoveredRoom{Room: r, PropertyName: r.Property.Name, DaysRemaining: r.DaysUntilLevyExpiry(now)})
	}

	return &Confirmation{Role: p.Role, Reference: reference, LevyPayment: &payment, Rooms: covered}, nil
}

func (s *ConfirmationService) confirmBooking(ctx context.Context, p *access.Principal, reference string) (*Confirmation, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Preload("Booking.Room").
		Preload("Booking.Property").
		Where("transaction_id = ? AND student_id = ?", reference, p.UserID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errConfirmationNotFound
	}
	if err != nil {
		return nil, persistenceError(err)
	}
	if payment.Method == models.PaymentGatewayPaystack {
		if err := s.reverify(ctx, reference, models.MinorUnits(payment.Amount)); err != nil {
			return nil, err
		}
	}
	return &Confirmation{Role: p.Role, Reference: reference, BookingPayment: &payment}, nil
}

func (s *ConfirmationService) reverify(ctx context.Context, reference string, amountMinor int64) error {
	v, err := s.gateway.Verify(ctx, reference)
	recordVerification(s.db, reference, v, err)
	if err != nil {
		applog.Log.Warnf("Confirmation re-verification failed for %s: %v", reference, err)
		return gatewayAppError(err)
	}
	if v.Data.Amount != amountMinor {
		applog.Log.Warnf("Confirmation amount mismatch for %s: gateway %d, ledger %d", reference, v.Data.Amount, amountMinor)
		return newError(KindPaymentFailed, "amount_mismatch", "Payment could not be confirmed.")
	}
	return nil
}
