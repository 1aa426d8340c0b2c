package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campusstay_echo/internal/access"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
)

// RegisterRoomInput is the raw room form; fields are parsed by RegisterRoom so
// every problem can be reported at once.
type RegisterRoomInput struct {
	PropertyID string `form:"property_id"`
	RoomNumber string `form:"room_number"`
	Capacity   string `form:"capacity"`
	Gender     string `form:"gender"`
}

type RegisterRoomResult struct {
	Room   models.Room
	Intent models.PaymentIntent
}

type RoomService struct {
	db   *gorm.DB
	levy LevySettings
	now  func() time.Time
}

func NewRoomService(db *gorm.DB, levy LevySettings) *RoomService {
	return &RoomService{db: db, levy: levy, now: utcNow}
}

type parsedRoom struct {
	propertyID uint
	number     string
	capacity   int
	gender     models.RoomGender
}

func (s *RoomService) parseRoomInput(in RegisterRoomInput) (parsedRoom, ValidationErrors) {
	errs := ValidationErrors{}
	out := parsedRoom{number: strings.TrimSpace(in.RoomNumber)}

	if id, err := strconv.ParseUint(strings.TrimSpace(in.PropertyID), 10, 64); err != nil || id == 0 {
		errs.Add("property_id", "Property is required")
	} else {
		out.propertyID = uint(id)
	}

	if out.number == "" {
		errs.Add("room_number", "Room number is required")
	} else if len(out.number) > 50 {
		errs.Add("room_number", "Room number is too long")
	}

	capacity, err := strconv.Atoi(strings.TrimSpace(in.Capacity))
	if err != nil || capacity < models.MinRoomCapacity || capacity > models.MaxRoomCapacity {
		errs.Add("capacity", fmt.Sprintf("Capacity must be between %d and %d", models.MinRoomCapacity, models.MaxRoomCapacity))
	} else {
		out.capacity = capacity
	}

	switch g := models.RoomGender(strings.ToLower(strings.TrimSpace(in.Gender))); g {
	case models.RoomGenderMale, models.RoomGenderFemale:
		out.gender = g
	default:
		errs.Add("gender", "Gender must be male or female")
	}
	return out, errs
}

// checkRoomTarget adds errors for a property the caller cannot add rooms to, or a taken number
func checkRoomTarget(tx *gorm.DB, p *access.Principal, in parsedRoom, lock bool, errs ValidationErrors) error {
	if _, err := p.OwnsProperty(tx, in.propertyID, lock); err != nil {
		if errors.Is(err, access.ErrNotOwner) {
			errs.Add("property_id", "Property not found or you do not own it")
			return nil
		}
		return err
	}
	var taken int64
	if err := tx.Model(&models.Room{}).
		Where("property_id = ? AND room_number = ?", in.propertyID, in.number).
		Count(&taken).Error; err != nil {
		return err
	}
	if taken > 0 {
		errs.Add("room_number", fmt.Sprintf("Room %s already exists in this property", in.number))
	}
	return nil
}

// RegisterRoom adds a room to one of the caller's properties and opens a levy intent for it.
// Nothing is written unless every check passes.
func (s *RoomService) RegisterRoom(ctx context.Context, p *access.Principal, in RegisterRoomInput) (*RegisterRoomResult, error) {
	if p == nil {
		return nil, newError(KindUnauthenticated, "unauthenticated", "Please log in to continue.")
	}
	if !p.HasRole(models.RolePropertyOwner) {
		return nil, newError(KindAuthorization, "forbidden", "Only property owners can add rooms.")
	}

	parsed, errs := s.parseRoomInput(in)
	if parsed.propertyID != 0 && parsed.number != "" {
		if err := checkRoomTarget(s.db.WithContext(ctx), p, parsed, false, errs); err != nil {
			applog.Log.Errorf("Room registration pre-check failed: %v", err)
			return nil, persistenceError(err)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.now()
	var result RegisterRoomResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// State may have moved since the pre-check; repeat it under the property lock
		recheck := ValidationErrors{}
		if err := checkRoomTarget(tx, p, parsed, true, recheck); err != nil {
			return err
		}
		if err := recheck.Err(); err != nil {
			return err
		}

		room := models.Room{
			PropertyID:        parsed.propertyID,
			RoomNumber:        parsed.number,
			Capacity:          parsed.capacity,
			Gender:            parsed.gender,
			Status:            models.RoomStatusAvailable,
			CurrentOccupancy:  0,
			LevyPaymentStatus: models.LevyStatusPending,
		}
		if err := tx.Create(&room).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return validationError("room_number", fmt.Sprintf("Room %s already exists in this property", parsed.number))
			}
			return err
		}

		pending, expired, err := countLevyRooms(tx, parsed.propertyID, now)
		if err != nil {
			return err
		}

		propertyID := parsed.propertyID
		intent := models.PaymentIntent{
			Reference:    NewLevyReference(now),
			OwnerID:      p.UserID,
			PropertyID:   &propertyID,
			Amount:       s.levy.FeePerRoom,
			Currency:     s.levy.Currency,
			RoomIDs:      []uint{room.ID},
			PendingRooms: int(pending),
			ExpiredRooms: int(expired),
			Status:       models.PaymentIntentStatusOpen,
			ExpiresAt:    now.Add(s.levy.IntentTTL),
			NewRoomID:    &room.ID,
			RoomNumber:   room.RoomNumber,
			Capacity:     room.Capacity,
			Gender:       room.Gender,
		}
		if err := tx.Create(&intent).Error; err != nil {
			return err
		}

		result = RegisterRoomResult{Room: room, Intent: intent}
		return nil
	})
	if err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			applog.Log.Errorf("Room registration failed for property %d: %v", parsed.propertyID, err)
		}
		return nil, asAppError(err)
	}

	applog.Log.Infof("Room %s registered on property %d, levy reference %s", result.Room.RoomNumber, parsed.propertyID, result.Intent.Reference)
	return &result, nil
}

// countLevyRooms counts the property's rooms waiting for a first levy and those whose levy lapsed
func countLevyRooms(tx *gorm.DB, propertyID uint, now time.Time) (pending, expired int64, err error) {
	if err = tx.Model(&models.Room{}).
		Where("property_id = ? AND levy_payment_status = ?", propertyID, models.LevyStatusPending).
		Count(&pending).Error; err != nil {
		return 0, 0, err
	}
	err = tx.Model(&models.Room{}).
		Where("property_id = ?", propertyID).
		Where("levy_payment_status = ? OR (levy_payment_status IN ? AND levy_expiry_date < ?)",
			models.LevyStatusExpired,
			[]models.LevyStatus{models.LevyStatusPaid, models.LevyStatusApproved},
			now).
		Count(&expired).Error
	return pending, expired, err
}

// NewLevyReference returns LEVY_<unix seconds>_<12 hex chars>
func NewLevyReference(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("LEVY_%d_%s", now.Unix(), suffix)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
