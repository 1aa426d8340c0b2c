package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusstay_echo/internal/access"
	"campusstay_echo/internal/middleware"
	"campusstay_echo/internal/models"
	"campusstay_echo/internal/services"
	"campusstay_echo/internal/testutil"
)

var testLevy = services.LevySettings{
	FeePerRoom: decimal.NewFromInt(50),
	Currency:   "GHS",
	Validity:   365 * 24 * time.Hour,
	IntentTTL:  24 * time.Hour,
}

type stubGateway struct {
	amount int64
}

func (g *stubGateway) Verify(_ context.Context, reference string) (*services.GatewayVerification, error) {
	v := &services.GatewayVerification{HTTPStatus: http.StatusOK, Status: true, Message: "Verification successful"}
	v.Data.Status = "success"
	v.Data.Reference = reference
	v.Data.Amount = g.amount
	v.Raw = []byte(`{"status":true}`)
	return v, nil
}

type env struct {
	db       *gorm.DB
	e        *echo.Echo
	flashes  *services.MemoryFlashStore
	owner    models.User
	property models.Property
	rooms    *services.RoomService
}

// newEnv wires the owner routes behind a middleware that acts as the given user
func newEnv(t *testing.T, gatewayAmount int64) *env {
	t.Helper()
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RolePropertyOwner)
	property := testutil.CreateProperty(t, db, owner.ID, "Unity Hostel")

	flashes := services.NewMemoryFlashStore()
	gateway := &stubGateway{amount: gatewayAmount}
	rooms := services.NewRoomService(db, testLevy)

	e := echo.New()
	e.HTTPErrorHandler = middleware.CustomErrorHandler
	actAs := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var u models.User
			if err := db.Where("email = ?", c.Request().Header.Get("X-Test-User")).First(&u).Error; err == nil {
				access.Set(c, &access.Principal{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
			}
			return next(c)
		}
	}

	dash := NewDashboardHandler(db, flashes)
	roomH := NewRoomHandler(rooms, flashes)
	levyH := NewLevyHandler(services.NewLevyService(db, gateway, testLevy), "pk_test_123")
	bookingH := NewBookingHandler(services.NewBookingService(db))
	confirmH := NewConfirmationHandler(services.NewConfirmationService(db, gateway), flashes)
	docH := NewDocumentHandler(services.NewDocumentService(db, nil, services.DocumentLimits{OwnerDocMaxBytes: 5 << 20, AgreementMaxBytes: 10 << 20}))
	accountH := NewAccountHandler(services.NewAccountService(db, nil, time.Hour))

	e.POST("/accounts/activate", accountH.Activate)
	g := e.Group("", actAs)
	g.GET("/", Home)
	g.GET("/payments/confirmation", confirmH.Show)
	g.GET("/owner/dashboard", dash.OwnerDashboard)
	g.POST("/owner/rooms", roomH.RegisterRoom)
	g.POST("/owner/levy/intents", levyH.BuildIntent)
	g.GET("/owner/levy/intents/:reference", levyH.GetIntent)
	g.POST("/owner/levy/verify", levyH.Verify)
	g.POST("/owner/bookings/cash", bookingH.RecordCashPayment)
	g.POST("/owner/agreements", docH.UploadAgreement)
	g.POST("/admin/owner-documents/:owner_id/review", docH.ReviewOwnerDocuments)
	prefH := NewUserPreferenceHandler(db)
	g.GET("/account/notifications", prefH.GetUserPreference)
	g.POST("/account/notifications", prefH.UpdateUserPreference)

	return &env{db: db, e: e, flashes: flashes, owner: owner, property: property, rooms: rooms}
}

func (en *env) do(req *http.Request, as string) *httptest.ResponseRecorder {
	if as != "" {
		req.Header.Set("X-Test-User", as)
	}
	rec := httptest.NewRecorder()
	en.e.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func (en *env) registerRoom(t *testing.T, number string) models.PaymentIntent {
	t.Helper()
	res, err := en.rooms.RegisterRoom(context.Background(), &access.Principal{UserID: en.owner.ID, Role: models.RolePropertyOwner}, services.RegisterRoomInput{
		PropertyID: fmt.Sprint(en.property.ID),
		RoomNumber: number,
		Capacity:   "2",
		Gender:     "female",
	})
	require.NoError(t, err)
	return res.Intent
}

func TestRegisterRoom_RedirectsWithSuccessFlash(t *testing.T) {
	en := newEnv(t, 5000)
	form := url.Values{
		"property_id": {fmt.Sprint(en.property.ID)},
		"room_number": {"A1"},
		"capacity":    {"2"},
		"gender":      {"male"},
	}

	rec := en.do(formRequest(http.MethodPost, "/owner/rooms", form), "owner@example.com")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/owner/dashboard", rec.Header().Get(echo.HeaderLocation))

	flashes, err := en.flashes.Pop(context.Background(), en.owner.ID)
	require.NoError(t, err)
	require.Len(t, flashes, 1)
	assert.Equal(t, services.FlashSuccess, flashes[0].Level)
	assert.Contains(t, flashes[0].Message, "LEVY_")
}

func TestRegisterRoom_CollectsErrorsIntoFlashes(t *testing.T) {
	en := newEnv(t, 5000)
	form := url.Values{
		"property_id": {fmt.Sprint(en.property.ID)},
		"room_number": {""},
		"capacity":    {"40"},
		"gender":      {"other"},
	}

	rec := en.do(formRequest(http.MethodPost, "/owner/rooms", form), "owner@example.com")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	flashes, err := en.flashes.Pop(context.Background(), en.owner.ID)
	require.NoError(t, err)
	assert.Len(t, flashes, 3)
	for _, f := range flashes {
		assert.Equal(t, services.FlashError, f.Level)
	}

	var rooms int64
	require.NoError(t, en.db.Model(&models.Room{}).Count(&rooms).Error)
	assert.Zero(t, rooms)
}

func TestOwnerDashboard_ShowsRoomsAndConsumesFlashes(t *testing.T) {
	en := newEnv(t, 5000)
	en.registerRoom(t, "B7")
	require.NoError(t, en.flashes.Add(context.Background(), en.owner.ID, services.Flash{Level: services.FlashSuccess, Message: "Welcome back"}))

	rec := en.do(httptest.NewRequest(http.MethodGet, "/owner/dashboard", nil), "owner@example.com")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "B7")
	assert.Contains(t, rec.Body.String(), "Welcome back")
	assert.Contains(t, rec.Body.String(), "1 room(s) need a levy payment")

	left, err := en.flashes.Pop(context.Background(), en.owner.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestHome_RedirectsByRole(t *testing.T) {
	en := newEnv(t, 5000)

	rec := en.do(httptest.NewRequest(http.MethodGet, "/", nil), "owner@example.com")
	assert.Equal(t, "/owner/dashboard", rec.Header().Get(echo.HeaderLocation))

	rec = en.do(httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestLevyVerify_Success(t *testing.T) {
	en := newEnv(t, 5000)
	intent := en.registerRoom(t, "C1")

	body := fmt.Sprintf(`{"reference":%q,"amount":50,"pending_rooms":99,"expired_rooms":0,"discount":0}`, intent.Reference)
	rec := en.do(jsonRequest(http.MethodPost, "/owner/levy/verify", body), "owner@example.com")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode(t, rec)
	assert.Equal(t, true, got["success"])
	assert.EqualValues(t, 1, got["updated_rooms"])
	assert.EqualValues(t, 1, got["pending_rooms"])

	var room models.Room
	require.NoError(t, en.db.Where("room_number = ?", "C1").First(&room).Error)
	assert.Equal(t, models.LevyStatusPaid, room.LevyPaymentStatus)
}

func TestLevyVerify_Errors(t *testing.T) {
	en := newEnv(t, 5000)
	intent := en.registerRoom(t, "C2")

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"reference":`, http.StatusBadRequest, "invalid_json"},
		{"missing reference", `{"amount":50}`, http.StatusBadRequest, "missing_reference"},
		{"amount not numeric", fmt.Sprintf(`{"reference":%q,"amount":"fifty"}`, intent.Reference), http.StatusBadRequest, "invalid_amount"},
		{"unknown intent", `{"reference":"LEVY_0_nothing","amount":50}`, http.StatusNotFound, ""},
		{"claimed amount differs", fmt.Sprintf(`{"reference":%q,"amount":75}`, intent.Reference), http.StatusBadRequest, "amount_mismatch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := en.do(jsonRequest(http.MethodPost, "/owner/levy/verify", tc.body), "owner@example.com")
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			got := decode(t, rec)
			assert.Equal(t, false, got["success"])
			if tc.code != "" {
				assert.Equal(t, tc.code, got["code"])
			}
		})
	}

	var payments int64
	require.NoError(t, en.db.Model(&models.RoomLevyPayment{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestLevyIntents_BuildAndGet(t *testing.T) {
	en := newEnv(t, 5000)
	en.registerRoom(t, "D1")
	en.registerRoom(t, "D2")

	rec := en.do(formRequest(http.MethodPost, "/owner/levy/intents", url.Values{}), "owner@example.com")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	built := decode(t, rec)
	assert.EqualValues(t, 10000, built["amount_minor"])

	rec = en.do(httptest.NewRequest(http.MethodGet, "/owner/levy/intents/"+built["reference"].(string), nil), "owner@example.com")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode(t, rec)
	assert.Equal(t, "pk_test_123", got["public_key"])
	assert.Len(t, got["rooms"], 2)
}

func TestRecordCashPayment_ValidationErrors(t *testing.T) {
	en := newEnv(t, 5000)
	form := url.Values{
		"property_id":   {fmt.Sprint(en.property.ID)},
		"student_email": {"not-an-email"},
	}

	rec := en.do(formRequest(http.MethodPost, "/owner/bookings/cash", form), "owner@example.com")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, false, got["success"])
	errs, ok := got["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Invalid email address", errs["student_email"])
}

func TestRecordCashPayment_Success(t *testing.T) {
	en := newEnv(t, 5000)
	room := testutil.CreateRoom(t, en.db, en.property.ID, "E1", 1, models.LevyStatusPaid)
	form := url.Values{
		"property_id":     {fmt.Sprint(en.property.ID)},
		"student_name":    {"Ama Mensah"},
		"student_email":   {"ama@example.com"},
		"student_phone":   {"0241234567"},
		"room_id":         {fmt.Sprint(room.ID)},
		"amount":          {"1200"},
		"start_date":      {time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")},
		"duration_months": {"6"},
	}

	rec := en.do(formRequest(http.MethodPost, "/owner/bookings/cash", form), "owner@example.com")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	got := decode(t, rec)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, true, got["student_invited"])
	details := got["room_details"].(map[string]interface{})
	assert.EqualValues(t, 1, details["current_occupancy"])
	assert.Equal(t, string(models.RoomStatusOccupied), details["status"])
}

func TestConfirmation_UnknownReferenceRedirectsWithFlash(t *testing.T) {
	en := newEnv(t, 5000)

	rec := en.do(httptest.NewRequest(http.MethodGet, "/payments/confirmation?reference=LEVY_nope", nil), "owner@example.com")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/owner/dashboard", rec.Header().Get(echo.HeaderLocation))
	flashes, err := en.flashes.Pop(context.Background(), en.owner.ID)
	require.NoError(t, err)
	require.Len(t, flashes, 1)
	assert.Equal(t, services.FlashError, flashes[0].Level)
}

func TestConfirmation_ShowsVerifiedLevy(t *testing.T) {
	en := newEnv(t, 5000)
	intent := en.registerRoom(t, "F1")
	body := fmt.Sprintf(`{"reference":%q,"amount":50}`, intent.Reference)
	require.Equal(t, http.StatusOK, en.do(jsonRequest(http.MethodPost, "/owner/levy/verify", body), "owner@example.com").Code)

	rec := en.do(httptest.NewRequest(http.MethodGet, "/payments/confirmation?reference="+intent.Reference, nil), "owner@example.com")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), intent.Reference)
	assert.Contains(t, rec.Body.String(), "F1")
}

func TestUploadAgreement_RequiresProperty(t *testing.T) {
	en := newEnv(t, 5000)

	rec := en.do(formRequest(http.MethodPost, "/owner/agreements", url.Values{"title": {"Lease"}}), "owner@example.com")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestReviewOwnerDocuments_OwnerForbidden(t *testing.T) {
	en := newEnv(t, 5000)

	rec := en.do(formRequest(http.MethodPost, fmt.Sprintf("/admin/owner-documents/%d/review", en.owner.ID), url.Values{"decision": {"approved"}}), "owner@example.com")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestActivate_InvalidToken(t *testing.T) {
	en := newEnv(t, 5000)

	rec := en.do(jsonRequest(http.MethodPost, "/accounts/activate", `{"token":"garbage","password":"longenough"}`), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "invalid_token", got["code"])
}

func TestUserPreference_Update(t *testing.T) {
	en := newEnv(t, 5000)

	rec := en.do(formRequest(http.MethodPost, "/account/notifications", url.Values{"channel": {"fax"}}), "owner@example.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = en.do(formRequest(http.MethodPost, "/account/notifications", url.Values{"channel": {"sms"}}), "owner@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var pref models.UserNotifPreference
	require.NoError(t, en.db.Where("user_id = ?", en.owner.ID).First(&pref).Error)
	assert.Equal(t, models.NotificationChannelSMS, pref.Channel)
	assert.Equal(t, models.WhatsappTargetTypePersonal, pref.WhatsappTargetType)

	rec = en.do(httptest.NewRequest(http.MethodGet, "/account/notifications", nil), "owner@example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
}
