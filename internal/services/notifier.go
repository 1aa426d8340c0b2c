package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
)

// ErrChannelNotConfigured is returned when the user's channel has no sender wired
var ErrChannelNotConfigured = errors.New("notification channel not configured")

// NotificationSettings controls the links put in outgoing notifications
type NotificationSettings struct {
	AppURL    string
	InviteTTL time.Duration
}

// Notifier delivers stored notifications over the user's preferred channel.
// A nil sender means that channel is disabled.
type Notifier struct {
	db       *gorm.DB
	notify   NotificationSettings
	email    EmailSender
	whatsapp WhatsappSender
	sms      SMSSender
	now      func() time.Time
}

func NewNotifier(db *gorm.DB, notify NotificationSettings, email EmailSender, whatsapp WhatsappSender, sms SMSSender) *Notifier {
	return &Notifier{db: db, notify: notify, email: email, whatsapp: whatsapp, sms: sms, now: utcNow}
}

// Deliver sends one notification and marks it delivered. Already delivered
// notifications are skipped; the returned channel is what was used.
func (n *Notifier) Deliver(ctx context.Context, notificationID uint) (models.NotificationChannel, error) {
	db := n.db.WithContext(ctx)

	var note models.Notification
	if err := db.Preload("User").First(&note, notificationID).Error; err != nil {
		return "", fmt.Errorf("load notification %d: %w", notificationID, err)
	}
	if note.DeliveredAt != nil {
		return models.NotificationChannelNone, nil
	}

	pref := models.DefaultNotifPreference(note.UserID)
	err := db.Where("user_id = ?", note.UserID).First(&pref).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("load preference for user %d: %w", note.UserID, err)
	}

	body := note.Message
	if note.Type == models.NotificationTypeAccountInvite {
		link, err := n.inviteLink(db, note.UserID)
		if err != nil {
			return pref.Channel, fmt.Errorf("issue activation link for user %d: %w", note.UserID, err)
		}
		if link == "" {
			// already activated; nothing left to send
			return models.NotificationChannelNone, n.markDelivered(db, &note)
		}
		body += " " + link
	}

	if err := n.send(pref, note, body); err != nil {
		return pref.Channel, err
	}
	if err := n.markDelivered(db, &note); err != nil {
		return pref.Channel, err
	}
	applog.Log.Infof("Notification %d delivered to user %d via %s", note.ID, note.UserID, pref.Channel)
	return pref.Channel, nil
}

func (n *Notifier) markDelivered(db *gorm.DB, note *models.Notification) error {
	if err := db.Model(note).Update("delivered_at", n.now()).Error; err != nil {
		return fmt.Errorf("mark notification %d delivered: %w", note.ID, err)
	}
	return nil
}

// inviteLink replaces the user's activation token and returns the link carrying it.
// The plaintext token only ever leaves in the outgoing message. Returns "" once the
// account is no longer waiting for activation.
func (n *Notifier) inviteLink(db *gorm.DB, userID uint) (string, error) {
	var token string
	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}
		if user.AccountStatus != models.AccountStatusInvited {
			return nil
		}
		var err error
		token, err = issueInvite(tx, &user, n.notify.InviteTTL, n.now())
		return err
	})
	if err != nil || token == "" {
		return "", err
	}
	return fmt.Sprintf("%s/accounts/activate?token=%s", strings.TrimRight(n.notify.AppURL, "/"), token), nil
}

func (n *Notifier) send(pref models.UserNotifPreference, note models.Notification, body string) error {
	switch pref.Channel {
	case models.NotificationChannelNone:
		return nil
	case models.NotificationChannelWhatsapp:
		if n.whatsapp == nil {
			return ErrChannelNotConfigured
		}
		target := note.User.Phone
		if pref.WhatsappTargetType == models.WhatsappTargetTypeGroup && pref.WhatsappGroupID != "" {
			target = pref.WhatsappGroupID
		}
		return n.whatsapp.SendMessage(target, fmt.Sprintf("*%s*\n%s", note.Title, body))
	case models.NotificationChannelSMS:
		if n.sms == nil {
			return ErrChannelNotConfigured
		}
		return n.sms.SendSMS(note.User.Phone, fmt.Sprintf("%s: %s", note.Title, body))
	default:
		if n.email == nil {
			return ErrChannelNotConfigured
		}
		return n.email.SendEmail([]string{note.User.Email}, note.Title, body)
	}
}
