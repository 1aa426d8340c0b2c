package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusstay_echo/internal/access"
	"campusstay_echo/internal/models"
)

var testLevy = LevySettings{
	FeePerRoom: decimal.NewFromInt(50),
	Currency:   "GHS",
	Validity:   365 * 24 * time.Hour,
	IntentTTL:  24 * time.Hour,
}

func ownerPrincipal(u models.User) *access.Principal {
	return &access.Principal{UserID: u.ID, Email: u.Email, Name: u.Name, Role: models.RolePropertyOwner}
}

func principalFor(u models.User) *access.Principal {
	return &access.Principal{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func requireKind(t *testing.T, err error, kind ErrorKind) *AppError {
	t.Helper()
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, kind, appErr.Kind, appErr.Error())
	return appErr
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// failWrites makes every create or update on table fail
func failWrites(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("simulated write failure on " + table))
		}
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_create_"+table, fail))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update_"+table, fail))
}

// fakeGateway answers Verify with a canned result
type fakeGateway struct {
	mu     sync.Mutex
	amount int64
	status string
	err    error
	calls  []string
}

func newFakeGateway(amount int64) *fakeGateway {
	return &fakeGateway{amount: amount, status: "success"}
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*GatewayVerification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, reference)
	if g.err != nil {
		return nil, g.err
	}
	v := &GatewayVerification{HTTPStatus: 200, Status: true, Message: "Verification successful"}
	v.Data.Status = g.status
	v.Data.Reference = reference
	v.Data.Amount = g.amount
	v.Data.GatewayResponse = "Approved"
	v.Raw = []byte(fmt.Sprintf(`{"status":true,"data":{"status":%q,"amount":%d}}`, g.status, g.amount))
	if g.status != "success" {
		return v, fmt.Errorf("%w: %s", ErrGatewayRejected, g.status)
	}
	return v, nil
}

// memoryStore is an in-memory FileStore
type memoryStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	seq     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: make(map[string][]byte)}
}

func (s *memoryStore) Save(_ context.Context, folder, ext, _ string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.seq++
	key := fmt.Sprintf("%s/%d%s", folder, s.seq, ext)
	s.files[key] = data
	return key, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *memoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0}, 64)...)
	pdfBytes  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
)

func upload(name string, data []byte) *Upload {
	return &Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}
