package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campusstay_echo/internal/access"
	applog "campusstay_echo/internal/logger"
	"campusstay_echo/internal/models"
)

var (
	ownerDocumentTypes = []string{"image/jpeg", "image/png", "application/pdf"}
	agreementTypes     = []string{"application/pdf"}
)

// Upload is one received file
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// UploadFromHeader adapts a multipart file header
func UploadFromHeader(fh *multipart.FileHeader) *Upload {
	if fh == nil {
		return nil
	}
	return &Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open:     func() (io.ReadCloser, error) { return fh.Open() },
	}
}

type checkedFile struct {
	name     string
	data     []byte
	mimeType string
	ext      string
}

// checkUpload reads the file within the size cap and sniffs its type from the content
func checkUpload(u *Upload, maxBytes int64, allowed []string) (*checkedFile, string) {
	if u == nil || u.Open == nil {
		return nil, "File is required"
	}
	if u.Size > maxBytes {
		return nil, fmt.Sprintf("File must be %s or smaller", formatBytes(maxBytes))
	}
	f, err := u.Open()
	if err != nil {
		return nil, "File could not be read"
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, "File could not be read"
	}
	if len(data) == 0 {
		return nil, "File is empty"
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Sprintf("File must be %s or smaller", formatBytes(maxBytes))
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowed...) {
		return nil, fmt.Sprintf("File type %s is not allowed", mt.String())
	}
	return &checkedFile{name: u.Filename, data: data, mimeType: mt.String(), ext: mt.Extension()}, ""
}

func formatBytes(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%dKB", n>>10)
}

// DocumentLimits caps upload sizes in bytes
type DocumentLimits struct {
	OwnerDocMaxBytes  int64
	AgreementMaxBytes int64
}

type DocumentService struct {
	db     *gorm.DB
	store  FileStore
	limits DocumentLimits
	now    func() time.Time
}

func NewDocumentService(db *gorm.DB, store FileStore, limits DocumentLimits) *DocumentService {
	return &DocumentService{db: db, store: store, limits: limits, now: utcNow}
}

func (s *DocumentService) discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			applog.Log.Errorf("Failed to remove orphaned upload %s: %v", key, err)
		}
	}
}

// SubmitOwnerDocuments stores the four verification files and records a new bundle version
func (s *DocumentService) SubmitOwnerDocuments(ctx context.Context, p *access.Principal, files map[string]*Upload) (*models.OwnerDocumentBundle, error) {
	if p == nil {
		return nil, newError(KindUnauthenticated, "unauthenticated", "Please log in to continue.")
	}
	if !p.HasRole(models.RolePropertyOwner) {
		return nil, newError(KindAuthorization, "forbidden", "Only property owners submit verification documents.")
	}

	errs := ValidationErrors{}
	checked := make(map[string]*checkedFile, len(models.OwnerDocumentFields))
	for _, field := range models.OwnerDocumentFields {
		cf, msg := checkUpload(files[field], s.limits.OwnerDocMaxBytes, ownerDocumentTypes)
		if msg != "" {
			errs.Add(field, fmt.Sprintf("%s: %s", strings.ReplaceAll(field, "_", " "), msg))
			continue
		}
		checked[field] = cf
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	keys := make(map[string]string, len(checked))
	stored := make([]string, 0, len(checked))
	for _, field := range models.OwnerDocumentFields {
		cf := checked[field]
		key, err := s.store.Save(ctx, fmt.Sprintf("owner-documents/%d", p.UserID), cf.ext, cf.mimeType, bytes.NewReader(cf.data))
		if err != nil {
			s.discard(ctx, stored...)
			applog.Log.Errorf("Failed to store %s for owner %d: %v", field, p.UserID, err)
			return nil, &AppError{Kind: KindPersistence, Code: "storage_error", Message: "Could not save your documents. Please try again.", Err: err}
		}
		keys[field] = key
		stored = append(stored, key)
	}

	now := s.now()
	var bundle models.OwnerDocumentBundle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("owner_id = ?", p.UserID).First(&bundle).Error
		action := models.DocumentRevisionResubmitted
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			action = models.DocumentRevisionSubmitted
			bundle = models.OwnerDocumentBundle{OwnerID: p.UserID, Version: 1, Status: models.DocumentStatusPending, SubmittedAt: now}
			bundle.SetKeys(keys)
			if err := tx.Create(&bundle).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			bundle.Version++
			bundle.Status = models.DocumentStatusPending
			bundle.SubmittedAt = now
			bundle.ReviewedBy = nil
			bundle.ReviewedAt = nil
			bundle.ReviewNote = ""
			bundle.SetKeys(keys)
			if err := tx.Save(&bundle).Error; err != nil {
				return err
			}
		}

		revision := models.OwnerDocumentRevision{
			BundleID:          bundle.ID,
			Version:           bundle.Version,
			Action:            action,
			NationalIDKey:     bundle.NationalIDKey,
			OwnershipProofKey: bundle.OwnershipProofKey,
			UtilityBillKey:    bundle.UtilityBillKey,
			PassportPhotoKey:  bundle.PassportPhotoKey,
		}
		return tx.Create(&revision).Error
	})
	if err != nil {
		s.discard(ctx, stored...)
		applog.Log.Errorf("Failed to record documents for owner %d: %v", p.UserID, err)
		return nil, asAppError(err)
	}

	applog.Log.Infof("Owner %d submitted documents, version %d", p.UserID, bundle.Version)
	return &bundle, nil
}

// ReviewOwnerDocuments lets an admin approve or reject a pending bundle
func (s *DocumentService) ReviewOwnerDocuments(ctx context.Context, p *access.Principal, ownerID uint, decision, note string) (*models.OwnerDocumentBundle, error) {
	if p == nil {
		return nil, newError(KindUnauthenticated, "unauthenticated", "Please log in to continue.")
	}
	if !p.HasRole(models.RoleAdmin) {
		return nil, newError(KindAuthorization, "forbidden", "Only administrators review documents.")
	}

	status := models.DocumentStatus(strings.ToLower(strings.TrimSpace(decision)))
	if status != models.DocumentStatusApproved && status != models.DocumentStatusRejected {
		return nil, validationError("decision", "Decision must be approved or rejected")
	}
	note = strings.TrimSpace(note)
	if status == models.DocumentStatusRejected && note == "" {
		return nil, validationError("note", "A note is required when rejecting documents")
	}

	now := s.now()
	var bundle models.OwnerDocumentBundle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("owner_id = ?", ownerID).First(&bundle).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(KindNotFound, "bundle_not_found", "No documents submitted by this owner.")
		}
		if err != nil {
			return err
		}
		if bundle.Status != models.DocumentStatusPending {
			return newError(KindConflict, "already_reviewed", "These documents have already been reviewed.")
		}

		reviewer := p.UserID
		bundle.Status = status
		bundle.ReviewedBy = &reviewer
		bundle.ReviewNote = note
		bundle.ReviewedAt = &now
		return tx.Model(&bundle).Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewer,
			"review_note": note,
			"reviewed_at": now,
		}).Error
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return &bundle, nil
}

// UploadAgreement stores a tenancy agreement PDF and grants it to the property's tenants.
// The stored file is removed again when the database write fails.
func (s *DocumentService) UploadAgreement(ctx context.Context, p *access.Principal, propertyID uint, title string, file *Upload) (*models.TenancyAgreement, int64, error) {
	if p == nil {
		return nil, 0, newError(KindUnauthenticated, "unauthenticated", "Please log in to continue.")
	}
	if _, err := p.OwnsProperty(s.db.WithContext(ctx), propertyID, false); err != nil {
		if errors.Is(err, access.ErrNotOwner) {
			return nil, 0, newError(KindAuthorization, "forbidden", "Property not found or you do not own it.")
		}
		return nil, 0, persistenceError(err)
	}

	cf, msg := checkUpload(file, s.limits.AgreementMaxBytes, agreementTypes)
	if msg != "" {
		return nil, 0, validationError("agreement", msg)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = cf.name
	}

	key, err := s.store.Save(ctx, fmt.Sprintf("agreements/%d", propertyID), cf.ext, cf.mimeType, bytes.NewReader(cf.data))
	if err != nil {
		applog.Log.Errorf("Failed to store agreement for property %d: %v", propertyID, err)
		return nil, 0, &AppError{Kind: KindPersistence, Code: "storage_error", Message: "Could not save the agreement. Please try again.", Err: err}
	}

	agreement := models.TenancyAgreement{
		PropertyID: propertyID,
		OwnerID:    p.UserID,
		Title:      title,
		FileKey:    key,
		FileName:   cf.name,
		MimeType:   cf.mimeType,
		SizeBytes:  int64(len(cf.data)),
	}
	var granted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&agreement).Error; err != nil {
			return err
		}
		n, err := grantAgreementAccess(tx, agreement)
		granted = n
		return err
	})
	if err != nil {
		s.discard(ctx, key)
		applog.Log.Errorf("Failed to record agreement for property %d: %v", propertyID, err)
		return nil, 0, asAppError(err)
	}

	applog.Log.Infof("Agreement %d uploaded for property %d, %d tenants granted", agreement.ID, propertyID, granted)
	return &agreement, granted, nil
}

// GrantAgreementAccess gives every current tenant of the agreement's property access.
// Existing grants are kept, so calling it again only adds new tenants.
func (s *DocumentService) GrantAgreementAccess(ctx context.Context, agreementID uint) (int64, error) {
	var granted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var agreement models.TenancyAgreement
		if err := tx.First(&agreement, agreementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(KindNotFound, "agreement_not_found", "Agreement not found.")
			}
			return err
		}
		n, err := grantAgreementAccess(tx, agreement)
		granted = n
		return err
	})
	if err != nil {
		return 0, asAppError(err)
	}
	return granted, nil
}

func grantAgreementAccess(tx *gorm.DB, agreement models.TenancyAgreement) (int64, error) {
	var bookings []models.Booking
	if err := tx.Where("property_id = ? AND status IN ?", agreement.PropertyID,
		[]models.BookingStatus{models.BookingStatusPaid, models.BookingStatusConfirmed}).
		Find(&bookings).Error; err != nil {
		return 0, err
	}
	if len(bookings) == 0 {
		return 0, nil
	}

	grants := make([]models.StudentAgreementAccess, 0, len(bookings))
	for _, b := range bookings {
		grants = append(grants, models.StudentAgreementAccess{AgreementID: agreement.ID, StudentID: b.StudentID, BookingID: b.ID})
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grants)
	return res.RowsAffected, res.Error
}
