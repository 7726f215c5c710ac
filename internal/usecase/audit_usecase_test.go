package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type AuditLogRepoMock struct{ mock.Mock }

func (m *AuditLogRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	panic("not used in AuditUsecase tests")
}

func (m *AuditLogRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

var admin = model.Actor{UserID: 99, Role: model.RoleAdmin}

func TestAudit_ListBuildsFilter(t *testing.T) {
	rm := &AuditLogRepoMock{}
	uc := NewAuditUsecase(rm)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rm.On("List", mock.Anything, mock.MatchedBy(func(f repo.AuditLogFilter) bool {
		return f.ResourceType != nil && *f.ResourceType == model.AuditResourceOrder &&
			f.ResourceID != nil && *f.ResourceID == orderID &&
			f.Action != nil && *f.Action == model.AuditActionAcceptOrder &&
			f.CreatedFrom != nil && f.CreatedFrom.Equal(from) &&
			f.CreatedTo == nil &&
			f.Limit == 50 && f.Offset == 10
	})).Return([]model.AuditLog{{ID: 1, Action: model.AuditActionAcceptOrder}}, nil).Once()

	logs, err := uc.List(context.Background(), admin, ListAuditLogsInput{
		ResourceType: "order",
		ResourceID:   orderID,
		Action:       "accept_order",
		From:         "2026-01-01T00:00:00Z",
		Limit:        50,
		Offset:       10,
	})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	rm.AssertExpectations(t)
}

func TestAudit_AdminOnly(t *testing.T) {
	uc := NewAuditUsecase(&AuditLogRepoMock{})

	for _, a := range []model.Actor{buyer, staff, driverA} {
		_, err := uc.List(context.Background(), a, ListAuditLogsInput{Limit: 10})
		requireHTTPError(t, err, http.StatusForbidden, CodeForbidden)
	}
}

func TestAudit_InvalidInput(t *testing.T) {
	uc := NewAuditUsecase(&AuditLogRepoMock{})

	cases := map[string]ListAuditLogsInput{
		"limit too large": {Limit: 201},
		"negative offset": {Limit: 10, Offset: -1},
		"resource type":   {Limit: 10, ResourceType: "user"},
		"from":            {Limit: 10, From: "2026-01-01"},
		"to":              {Limit: 10, To: "yesterday"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.List(context.Background(), admin, in)
			requireHTTPError(t, err, http.StatusBadRequest, CodeValidation)
		})
	}
}

func TestAudit_DBError(t *testing.T) {
	rm := &AuditLogRepoMock{}
	rm.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	uc := NewAuditUsecase(rm)

	_, err := uc.List(context.Background(), admin, ListAuditLogsInput{Limit: 10})
	requireHTTPError(t, err, http.StatusInternalServerError, CodeInternal)
}
