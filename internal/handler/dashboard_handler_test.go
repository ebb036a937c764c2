package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/djschool-api/internal/dto"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type fakeDashboardSrv struct {
	adminResp      *dto.AdminDashboard
	adminHit       bool
	studentResp    *dto.StudentDashboard
	studentErr     error
	instructorResp *dto.InstructorDashboard
	mineResp       interface{}
	mineHit        bool
	mineErr        error
	called         string
}

func (f *fakeDashboardSrv) Mine(context.Context) (interface{}, bool, error) {
	f.called = "mine"
	return f.mineResp, f.mineHit, f.mineErr
}

func (f *fakeDashboardSrv) Student(context.Context) (*dto.StudentDashboard, bool, error) {
	f.called = "student"
	return f.studentResp, false, f.studentErr
}

func (f *fakeDashboardSrv) Instructor(context.Context) (*dto.InstructorDashboard, bool, error) {
	f.called = "instructor"
	return f.instructorResp, false, nil
}

func (f *fakeDashboardSrv) Admin(context.Context) (*dto.AdminDashboard, bool, error) {
	f.called = "admin"
	return f.adminResp, f.adminHit, nil
}

type responseEnvelope struct {
	Data   map[string]interface{} `json:"data"`
	Meta   map[string]interface{} `json:"meta"`
	Notice string                 `json:"notice"`
	Error  *appErrors.Error       `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return envelope
}

func TestDashboardHandlerAdminReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		adminResp: &dto.AdminDashboard{WeekAttendanceRate: 67},
		adminHit:  true,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/admin", nil)

	handler.Admin(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decode(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, float64(67), envelope.Data["week_attendance_rate"])
}

func TestDashboardHandlerMineRelaysService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{mineResp: &dto.InstructorDashboard{}, mineHit: true}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	NewDashboardHandler(srv).Mine(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mine", srv.called)
	assert.Equal(t, true, decode(t, rec).Meta["cache_hit"])
}

func TestDashboardHandlerMineRequiresCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	NewDashboardHandler(&fakeDashboardSrv{mineErr: appErrors.ErrUnauthorized}).Mine(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec).Error.Code)
}

func TestDashboardHandlerStudentError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/student", nil)

	NewDashboardHandler(&fakeDashboardSrv{studentErr: appErrors.ErrTransient}).Student(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
