package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mvargas/muni-machinery/internal/model"
	"github.com/mvargas/muni-machinery/internal/repository"
)

type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditEntry), args.Error(1)
}

func TestAuditListAdminOnly(t *testing.T) {
	store := new(mockAuditStore)
	svc := NewAuditService(store)

	_, err := svc.List(context.Background(), inspector(), repository.AuditFilter{})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	store.On("List", mock.Anything, mock.Anything).Return([]model.AuditEntry{
		{Action: "report.submit"},
	}, nil)
	entries, err := svc.List(context.Background(), admin(), repository.AuditFilter{})
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}
