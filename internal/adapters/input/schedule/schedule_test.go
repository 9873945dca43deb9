package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"alexa-smarthome-bridge/internal/observability"
)

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) ReportAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New("every tuesday", new(MockReporter), 0, nil)
	assert.Error(t, err)
}

func TestRun_CountsOutcome(t *testing.T) {
	rep := new(MockReporter)
	rep.On("ReportAll", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(nil).Once()
	rep.On("ReportAll", mock.Anything).Return(errors.New("gateway down")).Once()

	s, err := New("@every 1h", rep, time.Second, nil)
	require.NoError(t, err)

	okBefore := testutil.ToFloat64(observability.ReportCounter.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(observability.ReportCounter.WithLabelValues("error"))
	s.run()
	s.run()

	assert.Equal(t, okBefore+1, testutil.ToFloat64(observability.ReportCounter.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(observability.ReportCounter.WithLabelValues("error")))
	rep.AssertExpectations(t)
}

func TestStartStop(t *testing.T) {
	s, err := New("@every 1h", new(MockReporter), 0, nil)
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
