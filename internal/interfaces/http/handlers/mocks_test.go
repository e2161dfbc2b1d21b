package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/riskengine/internal/domain/models"
)

type MockAssessmentService struct {
	mock.Mock
}

func (m *MockAssessmentService) Assess(ctx context.Context, entityType models.EntityType, entityID string, assessmentType models.AssessmentType) (*models.RiskAssessment, error) {
	args := m.Called(ctx, entityType, entityID, assessmentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RiskAssessment), args.Error(1)
}

func (m *MockAssessmentService) AssessPortfolio(ctx context.Context, assessmentType models.AssessmentType) (*models.RiskAssessment, error) {
	args := m.Called(ctx, assessmentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RiskAssessment), args.Error(1)
}

func (m *MockAssessmentService) GetAssessment(ctx context.Context, id string) (*models.RiskAssessment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RiskAssessment), args.Error(1)
}

func (m *MockAssessmentService) GetEntityRiskAssessments(ctx context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) ([]*models.RiskAssessment, error) {
	args := m.Called(ctx, entityType, entityID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RiskAssessment), args.Error(1)
}

func (m *MockAssessmentService) GetRiskTrends(ctx context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) (*models.TrendResult, error) {
	args := m.Called(ctx, entityType, entityID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrendResult), args.Error(1)
}

type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) AcknowledgeAlert(ctx context.Context, alertID, userID, notes string) (*models.Alert, error) {
	args := m.Called(ctx, alertID, userID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertService) ResolveAlert(ctx context.Context, alertID, userID, resolution string) (*models.Alert, error) {
	args := m.Called(ctx, alertID, userID, resolution)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertService) EscalateAlert(ctx context.Context, alertID string) (*models.EscalationResult, error) {
	args := m.Called(ctx, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EscalationResult), args.Error(1)
}

func (m *MockAlertService) ProcessAlertQueue(ctx context.Context) (*models.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepResult), args.Error(1)
}

func (m *MockAlertService) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	args := m.Called(ctx, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Alert), args.Error(1)
}

func (m *MockAlertService) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Alert), args.Error(1)
}

func (m *MockAlertService) ListEntityAlerts(ctx context.Context, entityType models.EntityType, entityID string, filter models.AlertFilter) ([]*models.Alert, error) {
	args := m.Called(ctx, entityType, entityID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Alert), args.Error(1)
}

func (m *MockAlertService) GetAlertStatistics(ctx context.Context, filter models.AlertFilter) (*models.AlertStatistics, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AlertStatistics), args.Error(1)
}
