package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-feedback-service/internal/application/caretaker"
	"github.com/go-feedback-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCaretakerSvc struct{ mock.Mock }

func (m *mockCaretakerSvc) Run(ctx context.Context, threshold time.Duration) (caretaker.Result, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(caretaker.Result), args.Error(1)
}

func TestCaretakerRun(t *testing.T) {
	svc := &mockCaretakerSvc{}
	svc.On("Run", mock.Anything, 30*24*time.Hour).Return(caretaker.Result{Scanned: 3, Deleted: 1}, nil)

	rr := httptest.NewRecorder()
	NewCaretakerHandler(svc, 30*24*time.Hour, time.Minute).Run(rr, httptest.NewRequest(http.MethodPost, "/v1/caretaker", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var res map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, map[string]int{"scanned": 3, "deleted": 1, "failed": 0}, res)
}

func TestCaretakerRun_BackendDown(t *testing.T) {
	svc := &mockCaretakerSvc{}
	svc.On("Run", mock.Anything, mock.Anything).Return(caretaker.Result{}, domain.Transient("scan feedback", assert.AnError))

	rr := httptest.NewRecorder()
	NewCaretakerHandler(svc, time.Hour, time.Minute).Run(rr, httptest.NewRequest(http.MethodGet, "/v1/caretaker", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCaretakerRun_BudgetExceeded_ReturnsPartialCounters(t *testing.T) {
	svc := &mockCaretakerSvc{}
	svc.On("Run", mock.Anything, time.Hour).
		Return(caretaker.Result{Scanned: 200, Deleted: 40}, context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		})

	rr := httptest.NewRecorder()
	NewCaretakerHandler(svc, time.Hour, 10*time.Millisecond).Run(rr, httptest.NewRequest(http.MethodPost, "/v1/caretaker", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var env CaretakerEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.True(t, env.Partial)
	assert.Equal(t, 200, env.Scanned)
	assert.Equal(t, 40, env.Deleted)
}
