package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func newTestRouter(risk *MockAssessmentService, alerts *MockAlertService) *gin.Engine {
	log := logger.NewNoopLogger()
	rh := NewRiskHandler(risk, log)
	ah := NewAlertHandler(alerts, log)

	r := gin.New()
	r.POST("/risks/assess", rh.Assess)
	r.POST("/risks/portfolio/assess", rh.AssessPortfolio)
	r.GET("/risks/assessments/:id", rh.GetAssessment)
	r.GET("/risks/:entity_type/:entity_id/assessments", rh.ListEntityAssessments)
	r.GET("/risks/:entity_type/:entity_id/trends", rh.GetTrends)
	r.GET("/alerts", ah.ListAlerts)
	r.GET("/alerts/stats", ah.Statistics)
	r.POST("/alerts/process", ah.ProcessQueue)
	r.GET("/alerts/:id", ah.GetAlert)
	r.POST("/alerts/:id/acknowledge", ah.Acknowledge)
	r.POST("/alerts/:id/resolve", ah.Resolve)
	r.POST("/alerts/:id/escalate", ah.Escalate)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func sampleAssessment() *models.RiskAssessment {
	return &models.RiskAssessment{
		ID:             "a-1",
		EntityType:     models.EntityTypeProperty,
		EntityID:       "prop-1",
		AssessmentType: models.AssessmentTypeComprehensive,
		OverallScore:   2.4,
		RiskLevel:      models.RiskLevelMedium,
		Factors: map[models.Category]models.RiskFactor{
			models.CategoryMaintenance: {
				Category:               models.CategoryMaintenance,
				Score:                  2.4,
				ContributingAttributes: []string{"property_age"},
			},
		},
	}
}

func TestRiskHandler_Assess(t *testing.T) {
	risk := new(MockAssessmentService)
	r := newTestRouter(risk, new(MockAlertService))

	risk.On("Assess", mock.Anything, models.EntityTypeProperty, "prop-1", models.AssessmentType("")).
		Return(sampleAssessment(), nil).Once()

	w, env := do(t, r, http.MethodPost, "/risks/assess", map[string]string{
		"entity_type": "property",
		"entity_id":   "prop-1",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "a-1", got["id"])
	assert.Contains(t, got, "factor_details")
	risk.AssertExpectations(t)
}

func TestRiskHandler_AssessValidation(t *testing.T) {
	risk := new(MockAssessmentService)
	r := newTestRouter(risk, new(MockAlertService))

	tests := []struct {
		name string
		body interface{}
	}{
		{"malformed json", "{"},
		{"unknown entity type", map[string]string{"entity_type": "building", "entity_id": "b-1"}},
		{"portfolio is not a single entity", map[string]string{"entity_type": "portfolio", "entity_id": "p"}},
		{"missing id", map[string]string{"entity_type": "tenant"}},
		{"bad id characters", map[string]string{"entity_type": "tenant", "entity_id": "a b"}},
		{"unknown assessment type", map[string]string{"entity_type": "tenant", "entity_id": "t-1", "assessment_type": "weather"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/risks/assess", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, string(constants.ErrCodeValidation), env.Error.Code)
		})
	}
	risk.AssertNotCalled(t, "Assess", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRiskHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", errors.ErrNotFound("entity", "prop-9"), http.StatusNotFound},
		{"unavailable", errors.ErrUnavailable("snapshot store down"), http.StatusServiceUnavailable},
		{"aggregation", errors.ErrAggregation("no factors"), http.StatusUnprocessableEntity},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := new(MockAssessmentService)
			r := newTestRouter(risk, new(MockAlertService))
			risk.On("Assess", mock.Anything, models.EntityTypeProperty, "prop-9", models.AssessmentType("")).
				Return(nil, tt.err).Once()

			w, env := do(t, r, http.MethodPost, "/risks/assess", map[string]string{
				"entity_type": "property",
				"entity_id":   "prop-9",
			})
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestRiskHandler_AssessPortfolioWithoutBody(t *testing.T) {
	risk := new(MockAssessmentService)
	r := newTestRouter(risk, new(MockAlertService))

	roll := &models.RiskAssessment{ID: "p-1", EntityType: models.EntityTypePortfolio, EntityID: constants.PortfolioEntityID}
	risk.On("AssessPortfolio", mock.Anything, models.AssessmentType("")).Return(roll, nil).Once()

	w, env := do(t, r, http.MethodPost, "/risks/portfolio/assess", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	risk.AssertExpectations(t)
}

func TestRiskHandler_ListEntityAssessments(t *testing.T) {
	risk := new(MockAssessmentService)
	r := newTestRouter(risk, new(MockAlertService))

	opts := models.QueryOptions{Limit: 5, Offset: 10}
	risk.On("GetEntityRiskAssessments", mock.Anything, models.EntityTypeTenant, "ten-1", opts).
		Return([]*models.RiskAssessment{sampleAssessment()}, nil).Once()

	w, env := do(t, r, http.MethodGet, "/risks/tenant/ten-1/assessments?limit=5&offset=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count int `json:"count"`
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, 5, page.Limit)

	w, _ = do(t, r, http.MethodGet, "/risks/tenant/ten-1/assessments?limit=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	risk.AssertExpectations(t)
}

func TestRiskHandler_GetTrendsAndAssessment(t *testing.T) {
	risk := new(MockAssessmentService)
	r := newTestRouter(risk, new(MockAlertService))

	risk.On("GetRiskTrends", mock.Anything, models.EntityTypeProperty, "prop-1", models.QueryOptions{}).
		Return(&models.TrendResult{Trend: models.TrendStable}, nil).Once()
	risk.On("GetAssessment", mock.Anything, "missing").
		Return(nil, errors.ErrNotFound("assessment", "missing")).Once()

	w, _ := do(t, r, http.MethodGet, "/risks/property/prop-1/trends", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, r, http.MethodGet, "/risks/assessments/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(constants.ErrCodeNotFound), env.Error.Code)
	risk.AssertExpectations(t)
}

func TestAlertHandler_Acknowledge(t *testing.T) {
	alerts := new(MockAlertService)
	r := newTestRouter(new(MockAssessmentService), alerts)

	acked := &models.Alert{ID: "al-1", Status: models.AlertStatusAcknowledged}
	alerts.On("AcknowledgeAlert", mock.Anything, "al-1", "u-1", "on it").Return(acked, nil).Once()
	alerts.On("AcknowledgeAlert", mock.Anything, "al-2", "u-1", "").
		Return(nil, errors.ErrConflict("alert is resolved")).Once()

	w, env := do(t, r, http.MethodPost, "/alerts/al-1/acknowledge", map[string]string{"user_id": "u-1", "notes": "on it"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = do(t, r, http.MethodPost, "/alerts/al-2/acknowledge", map[string]string{"user_id": "u-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(constants.ErrCodeInvalidTransition), env.Error.Code)

	w, _ = do(t, r, http.MethodPost, "/alerts/al-1/acknowledge", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	alerts.AssertExpectations(t)
}

func TestAlertHandler_ResolveRequiresResolution(t *testing.T) {
	alerts := new(MockAlertService)
	r := newTestRouter(new(MockAssessmentService), alerts)

	w, env := do(t, r, http.MethodPost, "/alerts/al-1/resolve", map[string]string{"user_id": "u-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "resolution")

	alerts.On("ResolveAlert", mock.Anything, "al-1", "u-1", "fixed").
		Return(&models.Alert{ID: "al-1", Status: models.AlertStatusResolved}, nil).Once()
	w, _ = do(t, r, http.MethodPost, "/alerts/al-1/resolve", map[string]string{"user_id": "u-1", "resolution": "fixed"})
	assert.Equal(t, http.StatusOK, w.Code)
	alerts.AssertExpectations(t)
}

func TestAlertHandler_EscalateAndProcess(t *testing.T) {
	alerts := new(MockAlertService)
	r := newTestRouter(new(MockAssessmentService), alerts)

	alerts.On("EscalateAlert", mock.Anything, "al-1").
		Return(&models.EscalationResult{AlertID: "al-1", Escalated: false, Reason: "not overdue"}, nil).Once()
	alerts.On("ProcessAlertQueue", mock.Anything).Return(&models.SweepResult{Skipped: true}, nil).Once()

	w, env := do(t, r, http.MethodPost, "/alerts/al-1/escalate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var res models.EscalationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Escalated)

	w, _ = do(t, r, http.MethodPost, "/alerts/process", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	alerts.AssertExpectations(t)
}

func TestAlertHandler_ListAndStats(t *testing.T) {
	alerts := new(MockAlertService)
	r := newTestRouter(new(MockAssessmentService), alerts)

	filter := models.AlertFilter{EntityType: models.EntityTypeProperty, EntityID: "prop-1", Status: models.AlertStatusActive}
	alerts.On("ListAlerts", mock.Anything, filter).Return([]*models.Alert{{ID: "al-1"}}, nil).Once()
	alerts.On("GetAlertStatistics", mock.Anything, models.AlertFilter{}).
		Return(&models.AlertStatistics{Total: 3}, nil).Once()

	w, _ := do(t, r, http.MethodGet, "/alerts?entity_type=property&entity_id=prop-1&status=active", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, r, http.MethodGet, "/alerts/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var stats models.AlertStatistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.Total)

	w, _ = do(t, r, http.MethodGet, "/alerts?status=closed", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	alerts.AssertExpectations(t)
}

func TestHealthHandler(t *testing.T) {
	r := gin.New()
	healthy := NewHealthHandler(map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
	}, logger.NewNoopLogger())
	failing := NewHealthHandler(map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return fmt.Errorf("connection refused") },
	}, logger.NewNoopLogger())
	r.GET("/live", healthy.LivenessCheck)
	r.GET("/ready", healthy.ReadinessCheck)
	r.GET("/ready-bad", failing.ReadinessCheck)

	for path, status := range map[string]int{
		"/live":      http.StatusOK,
		"/ready":     http.StatusOK,
		"/ready-bad": http.StatusServiceUnavailable,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}
