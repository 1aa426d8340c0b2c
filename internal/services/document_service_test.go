package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusstay_echo/internal/models"
	"campusstay_echo/internal/testutil"
)

var testLimits = DocumentLimits{OwnerDocMaxBytes: 5 << 20, AgreementMaxBytes: 10 << 20}

func ownerDocs() map[string]*Upload {
	return map[string]*Upload{
		models.OwnerDocNationalID:     upload("id.jpg", jpegBytes),
		models.OwnerDocOwnershipProof: upload("deed.pdf", pdfBytes),
		models.OwnerDocUtilityBill:    upload("bill.png", pngBytes),
		models.OwnerDocPassportPhoto:  upload("photo.jpg", jpegBytes),
	}
}

func TestSubmitOwnerDocumentsVersions(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RolePropertyOwner)
	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	store := newMemoryStore()
	svc := NewDocumentService(db, store, testLimits)
	ctx := context.Background()

	bundle, err := svc.SubmitOwnerDocuments(ctx, ownerPrincipal(owner), ownerDocs())
	require.NoError(t, err)
	assert.Equal(t, 1, bundle.Version)
	assert.Equal(t, models.DocumentStatusPending, bundle.Status)
	assert.NotEmpty(t, bundle.NationalIDKey)
	assert.NotEmpty(t, bundle.PassportPhotoKey)
	assert.Equal(t, 4, store.len())

	reviewed, err := svc.ReviewOwnerDocuments(ctx, principalFor(admin), owner.ID, "rejected", "Utility bill is blurry")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusRejected, reviewed.Status)

	bundle, err = svc.SubmitOwnerDocuments(ctx, ownerPrincipal(owner), ownerDocs())
	require.NoError(t, err)
	assert.Equal(t, 2, bundle.Version)
	assert.Equal(t, models.DocumentStatusPending, bundle.Status)
	assert.Nil(t, bundle.ReviewedBy)
	assert.Empty(t, bundle.ReviewNote)

	var revisions []models.OwnerDocumentRevision
	require.NoError(t, db.Order("version").Find(&revisions).Error)
	require.Len(t, revisions, 2)
	assert.Equal(t, models.DocumentRevisionSubmitted, revisions[0].Action)
	assert.Equal(t, models.DocumentRevisionResubmitted, revisions[1].Action)
	assert.Equal(t, bundle.NationalIDKey, revisions[1].NationalIDKey)
	assert.Equal(t, int64(1), count(t, db, &models.OwnerDocumentBundle{}))
}

func TestSubmitOwnerDocumentsPerFileErrors(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RolePropertyOwner)
	store := newMemoryStore()
	svc := NewDocumentService(db, store, DocumentLimits{OwnerDocMaxBytes: 1024, AgreementMaxBytes: 1024})

	files := ownerDocs()
	files[models.OwnerDocNationalID] = upload("id.txt", []byte("just some text"))
	files[models.OwnerDocUtilityBill] = upload("bill.png", append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{1}, 2048)...))
	delete(files, models.OwnerDocPassportPhoto)

	_, err := svc.SubmitOwnerDocuments(context.Background(), ownerPrincipal(owner), files)
	appErr := requireKind(t, err, KindValidation)
	assert.Len(t, appErr.Fields, 3)
	assert.Contains(t, appErr.Fields[models.OwnerDocNationalID], "not allowed")
	assert.Contains(t, appErr.Fields[models.OwnerDocUtilityBill], "smaller")
	assert.Contains(t, appErr.Fields[models.OwnerDocPassportPhoto], "required")

	assert.Zero(t, store.len())
	assert.Equal(t, int64(0), count(t, db, &models.OwnerDocumentBundle{}))
}

func TestSubmitOwnerDocumentsRemovesFilesOnDatabaseFailure(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RolePropertyOwner)
	store := newMemoryStore()
	failWrites(t, db, "owner_document_revisions")

	_, err := NewDocumentService(db, store, testLimits).SubmitOwnerDocuments(context.Background(), ownerPrincipal(owner), ownerDocs())
	requireKind(t, err, KindPersistence)
	assert.Zero(t, store.len())
	assert.Equal(t, int64(0), count(t, db, &models.OwnerDocumentBundle{}))
}

func TestReviewOwnerDocuments(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RolePropertyOwner)
	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	svc := NewDocumentService(db, newMemoryStore(), testLimits)
	ctx := context.Background()

	_, err := svc.ReviewOwnerDocuments(ctx, principalFor(admin), owner.ID, "approved", "")
	requireKind(t, err, KindNotFound)

	_, err = svc.SubmitOwnerDocuments(ctx, ownerPrincipal(owner), ownerDocs())
	require.NoError(t, err)

	_, err = svc.ReviewOwnerDocuments(ctx, ownerPrincipal(owner), owner.ID, "approved", "")
	requireKind(t, err, KindAuthorization)

	_, err = svc.ReviewOwnerDocuments(ctx, principalFor(admin), owner.ID, "maybe", "")
	requireKind(t, err, KindValidation)

	_, err = svc.ReviewOwnerDocuments(ctx, principalFor(admin), owner.ID, "rejected", " ")
	requireKind(t, err, KindValidation)

	bundle, err := svc.ReviewOwnerDocuments(ctx, principalFor(admin), owner.ID, "approved", "")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusApproved, bundle.Status)
	require.NotNil(t, bundle.ReviewedBy)
	assert.Equal(t, admin.ID, *bundle.ReviewedBy)

	_, err = svc.ReviewOwnerDocuments(ctx, principalFor(admin), owner.ID, "rejected", "changed my mind")
	requireKind(t, err, KindConflict)
}

type agreementFixture struct {
	*bookingFixture
	store *memoryStore
	docs  *DocumentService
}

func newAgreementFixture(t *testing.T) *agreementFixture {
	f := newBookingFixture(t, 3)
	store := newMemoryStore()
	return &agreementFixture{bookingFixture: f, store: store, docs: NewDocumentService(f.db, store, testLimits)}
}

func TestUploadAgreementGrantsTenants(t *testing.T) {
	f := newAgreementFixture(t)
	ctx := context.Background()
	p := ownerPrincipal(f.owner)

	_, err := f.svc.RecordCashPayment(ctx, p, f.input("ama@example.com"))
	require.NoError(t, err)
	_, err = f.svc.RecordCashPayment(ctx, p, f.input("kofi@example.com"))
	require.NoError(t, err)
	cancelled, err := f.svc.RecordCashPayment(ctx, p, f.input("yaw@example.com"))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&cancelled.Booking).Update("status", models.BookingStatusCancelled).Error)

	agreement, granted, err := f.docs.UploadAgreement(ctx, p, f.property.ID, "Tenancy 2026", upload("tenancy.pdf", pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, int64(2), granted)
	assert.Equal(t, "application/pdf", agreement.MimeType)
	assert.Equal(t, "Tenancy 2026", agreement.Title)
	assert.Equal(t, 1, f.store.len())
	assert.Equal(t, int64(2), count(t, f.db, &models.StudentAgreementAccess{}))

	// granting again changes nothing
	again, err := f.docs.GrantAgreementAccess(ctx, agreement.ID)
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Equal(t, int64(2), count(t, f.db, &models.StudentAgreementAccess{}))

	// a later booking is picked up by the next grant
	require.NoError(t, f.db.Model(&cancelled.Booking).Update("status", models.BookingStatusConfirmed).Error)
	added, err := f.docs.GrantAgreementAccess(ctx, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)
	assert.Equal(t, int64(3), count(t, f.db, &models.StudentAgreementAccess{}))

	_, err = f.docs.GrantAgreementAccess(ctx, 9999)
	requireKind(t, err, KindNotFound)
}

func TestUploadAgreementChecks(t *testing.T) {
	f := newAgreementFixture(t)
	ctx := context.Background()

	_, _, err := f.docs.UploadAgreement(ctx, ownerPrincipal(f.owner), f.property.ID, "", upload("photo.png", pngBytes))
	requireKind(t, err, KindValidation)

	_, _, err = f.docs.UploadAgreement(ctx, ownerPrincipal(f.owner), f.property.ID, "", nil)
	requireKind(t, err, KindValidation)

	other := testutil.CreateUser(t, f.db, "other@example.com", models.RolePropertyOwner)
	_, _, err = f.docs.UploadAgreement(ctx, ownerPrincipal(other), f.property.ID, "", upload("tenancy.pdf", pdfBytes))
	requireKind(t, err, KindAuthorization)

	assert.Zero(t, f.store.len())
	assert.Equal(t, int64(0), count(t, f.db, &models.TenancyAgreement{}))
}

func TestUploadAgreementStorageFailureWritesNothing(t *testing.T) {
	f := newAgreementFixture(t)
	f.store.saveErr = errors.New("bucket unavailable")

	_, _, err := f.docs.UploadAgreement(context.Background(), ownerPrincipal(f.owner), f.property.ID, "", upload("tenancy.pdf", pdfBytes))
	requireKind(t, err, KindPersistence)
	assert.Equal(t, int64(0), count(t, f.db, &models.TenancyAgreement{}))
}

func TestUploadAgreementDatabaseFailureRemovesFile(t *testing.T) {
	f := newAgreementFixture(t)
	_, err := f.svc.RecordCashPayment(context.Background(), ownerPrincipal(f.owner), f.input("ama@example.com"))
	require.NoError(t, err)
	failWrites(t, f.db, "student_agreement_accesses")

	_, _, err = f.docs.UploadAgreement(context.Background(), ownerPrincipal(f.owner), f.property.ID, "", upload("tenancy.pdf", pdfBytes))
	requireKind(t, err, KindPersistence)
	assert.Zero(t, f.store.len())
	assert.Equal(t, int64(0), count(t, f.db, &models.TenancyAgreement{}))
}
