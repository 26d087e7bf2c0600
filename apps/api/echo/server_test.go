package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/amenity"
	"github.com/Bernah2o/altavista/core/billing"
	"github.com/Bernah2o/altavista/core/finance"
	"github.com/Bernah2o/altavista/core/incident"
	"github.com/Bernah2o/altavista/core/maintenance"
	"github.com/Bernah2o/altavista/core/property"
	"github.com/Bernah2o/altavista/core/report"
	"github.com/Bernah2o/altavista/core/staff"
	"github.com/Bernah2o/altavista/core/supplier"
	"github.com/Bernah2o/altavista/core/user"
	emailsvc "github.com/Bernah2o/altavista/services/email"
	logsvc "github.com/Bernah2o/altavista/services/logger"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{
	AppName:   "Altavista",
	SecretKey: "secret",
	TestMode:  true,
	Server: core.ServerConfig{
		JWTExpirationDelta:        time.Hour,
		JWTRefreshExpirationDelta: 4 * time.Hour,
	},
	PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
}

func setup(t *testing.T) (*Server, *user.Service) {
	t.Helper()

	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrSvc := user.NewService(conf, inmemdb.NewUserRepository(db), mailSvc)
	propSvc := property.NewService(conf, inmemdb.NewPropertyRepository(db))
	finSvc := finance.NewService(conf, inmemdb.NewFinanceRepository(db))
	billSvc := billing.NewService(conf, inmemdb.NewBillingRepository(db), propSvc, finSvc, mailSvc)
	incSvc := incident.NewService(conf, inmemdb.NewIncidentRepository(db), propSvc, mailSvc)
	mntSvc := maintenance.NewService(conf, inmemdb.NewMaintenanceRepository(db), finSvc, incSvc)
	incSvc.SetScheduler(mntSvc)
	amenSvc := amenity.NewService(conf, inmemdb.NewAmenityRepository(db), propSvc, finSvc)
	staffSvc := staff.NewService(conf, inmemdb.NewStaffRepository(db))
	supSvc := supplier.NewService(conf, inmemdb.NewSupplierRepository(db))
	rptSvc := report.NewService(conf, billSvc, finSvc, incSvc)

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		PropertySvc:    propSvc,
		BillingSvc:     billSvc,
		FinanceSvc:     finSvc,
		IncidentSvc:    incSvc,
		MaintenanceSvc: mntSvc,
		AmenitySvc:     amenSvc,
		StaffSvc:       staffSvc,
		SupplierSvc:    supSvc,
		ReportSvc:      rptSvc,
	})
	return server, usrSvc
}

func createUser(t *testing.T, svc *user.Service, uname string, roles []string) user.User {
	t.Helper()
	usr, err := svc.Create(user.NewUser{
		Name:     "Test " + uname,
		Username: uname,
		Email:    uname + "@test.cc",
		Password: "Secret!1",
		Roles:    roles,
	})
	require.NoError(t, err)
	return usr
}

func getToken(t *testing.T, server *Server, usr user.User) string {
	t.Helper()
	token, err := server.jwt.generateToken(server.jwt.getUserClaims(usr))
	require.NoError(t, err)
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func TestHome(t *testing.T) {
	server, _ := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Altavista API!", rec.Body.String())
}

func TestLogin(t *testing.T) {
	server, usrSvc := setup(t)

	usr := createUser(t, usrSvc, "awesome", user.ResidentRoles)
	inactive := createUser(t, usrSvc, "sleeper", user.ResidentRoles)
	_, err := usrSvc.Update(inactive.ID, user.UpdateUser{IsActive: new(bool)})
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     []byte
		wantCode int
		wantErr  string
	}{
		{
			name:     "unknown user",
			body:     marshallObj(t, LoginRequest{Username: "nobody", Password: "Secret!1"}),
			wantCode: http.StatusBadRequest,
			wantErr:  "authentication failed",
		},
		{
			name:     "wrong password",
			body:     marshallObj(t, LoginRequest{Username: usr.Username, Password: "wrong"}),
			wantCode: http.StatusBadRequest,
			wantErr:  "authentication failed",
		},
		{
			name:     "deactivated account",
			body:     marshallObj(t, LoginRequest{Username: inactive.Username, Password: "Secret!1"}),
			wantCode: http.StatusForbidden,
			wantErr:  "account deactivated",
		},
		{
			name:     "login by username",
			body:     marshallObj(t, LoginRequest{Username: usr.Username, Password: "Secret!1"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login by email",
			body:     marshallObj(t, LoginRequest{Username: usr.Email, Password: "Secret!1"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			server.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantErr != "" {
				assert.Contains(t, rec.Body.String(), tt.wantErr)
				return
			}
			var resp LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func TestJWTRequired(t *testing.T) {
	server, _ := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/homes")
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing or malformed jwt")
}

func TestHomesAPI(t *testing.T) {
	server, usrSvc := setup(t)

	admin := createUser(t, usrSvc, "almighty", user.AdminRoles)
	resident := createUser(t, usrSvc, "dweller", user.ResidentRoles)
	adminToken := getToken(t, server, admin)
	residentToken := getToken(t, server, resident)

	body := []byte(`{"block": "A", "number": "12", "area_m2": 72, "ownership_coefficient": 0.0125}`)

	// residents cannot register homes
	req, rec := newAuthRequest(http.MethodPost, "/v1/homes", residentToken, body)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/homes", adminToken, body)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var hm property.Home
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hm))
	assert.Equal(t, "Casa A-12", hm.Label())

	// duplicate block/number is refused
	req, rec = newAuthRequest(http.MethodPost, "/v1/homes", adminToken, body)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// residents can list and retrieve
	req, rec = newAuthRequest(http.MethodGet, "/v1/homes", residentToken)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var homes []property.Home
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &homes))
	require.Len(t, homes, 1)
	assert.Equal(t, hm.ID, homes[0].ID)

	req, rec = newAuthRequest(http.MethodGet, "/v1/homes/"+hm.ID, residentToken)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// unknown home is a 404
	req, rec = newAuthRequest(http.MethodGet, "/v1/homes/nope", residentToken)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestUserDetailAccess(t *testing.T) {
	server, usrSvc := setup(t)

	admin := createUser(t, usrSvc, "almighty", user.AdminRoles)
	resident := createUser(t, usrSvc, "dweller", user.ResidentRoles)
	adminToken := getToken(t, server, admin)
	residentToken := getToken(t, server, resident)

	// own detail
	req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+resident.ID, residentToken)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var got user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, resident.ID, got.ID)

	// someone else's detail is hidden from residents
	req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+admin.ID, residentToken)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// but not from admins
	req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+resident.ID, adminToken)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// listing is admin-only
	req, rec = newAuthRequest(http.MethodGet, "/v1/users", residentToken)
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/users", adminToken)
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}
