package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReconciler мок для ReconcilerInterface
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestNewCronScheduler(t *testing.T) {
	mockSvc := new(MockReconciler)

	scheduler := NewCronScheduler(mockSvc)

	assert.NotNil(t, scheduler)
	assert.NotNil(t, scheduler.cron)
	assert.Equal(t, mockSvc, scheduler.reconciler)
}

func TestCronScheduler_Start_Success(t *testing.T) {
	mockSvc := new(MockReconciler)
	scheduler := NewCronScheduler(mockSvc)

	// Первичная сверка при старте
	mockSvc.On("ReconcileAll", mock.Anything).Return(nil)

	err := scheduler.Start(context.Background(), "0 0 * * * *")

	assert.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1)

	scheduler.Stop()
	mockSvc.AssertNumberOfCalls(t, "ReconcileAll", 1)
}

func TestCronScheduler_Start_InvalidSchedule(t *testing.T) {
	mockSvc := new(MockReconciler)
	scheduler := NewCronScheduler(mockSvc)

	err := scheduler.Start(context.Background(), "invalid cron expression")

	assert.Error(t, err)
	mockSvc.AssertNotCalled(t, "ReconcileAll", mock.Anything)
}

func TestCronScheduler_Start_FiveFieldScheduleRejected(t *testing.T) {
	scheduler := NewCronScheduler(new(MockReconciler))

	err := scheduler.Start(context.Background(), "*/5 * * * *")

	assert.Error(t, err)
}

func TestCronScheduler_Start_InitialRunError_ContinuesWork(t *testing.T) {
	mockSvc := new(MockReconciler)
	scheduler := NewCronScheduler(mockSvc)

	mockSvc.On("ReconcileAll", mock.Anything).Return(errors.New("mongo unavailable"))

	err := scheduler.Start(context.Background(), "0 0 * * * *")

	assert.NoError(t, err)
	assert.Len(t, scheduler.GetEntries(), 1)

	scheduler.Stop()
}

func TestCronScheduler_GetEntries_Empty(t *testing.T) {
	scheduler := NewCronScheduler(new(MockReconciler))

	assert.Empty(t, scheduler.GetEntries())
}

func TestCronScheduler_JobExecution(t *testing.T) {
	mockSvc := new(MockReconciler)
	scheduler := NewCronScheduler(mockSvc)

	mockSvc.On("ReconcileAll", mock.Anything).Return(nil)

	err := scheduler.Start(context.Background(), "0 0 * * * *")
	require.NoError(t, err)
	defer scheduler.Stop()

	entries := scheduler.GetEntries()
	require.Len(t, entries, 1)

	// Срабатывание по расписанию вызывает ту же сверку, что и первичный запуск
	entries[0].Job.Run()
	entries[0].Job.Run()

	mockSvc.AssertNumberOfCalls(t, "ReconcileAll", 3)
}

func TestCronScheduler_JobExecution_WithError(t *testing.T) {
	mockSvc := new(MockReconciler)
	scheduler := NewCronScheduler(mockSvc)

	mockSvc.On("ReconcileAll", mock.Anything).Return(errors.New("reconcile error"))

	err := scheduler.Start(context.Background(), "0 0 * * * *")
	require.NoError(t, err)
	defer scheduler.Stop()

	entries := scheduler.GetEntries()
	require.Len(t, entries, 1)

	// Ошибка не снимает задачу с расписания
	entries[0].Job.Run()

	mockSvc.AssertNumberOfCalls(t, "ReconcileAll", 2)
	assert.Len(t, scheduler.GetEntries(), 1)
}

func TestCronScheduler_JobUsesStartContext(t *testing.T) {
	mockSvc := new(MockReconciler)
	scheduler := NewCronScheduler(mockSvc)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "reconcile")

	mockSvc.On("ReconcileAll", ctx).Return(nil)

	require.NoError(t, scheduler.Start(ctx, "@every 1h"))
	defer scheduler.Stop()

	scheduler.GetEntries()[0].Job.Run()

	mockSvc.AssertNumberOfCalls(t, "ReconcileAll", 2)
	mockSvc.AssertExpectations(t)
}
