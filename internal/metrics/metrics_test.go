package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRuleAction(t *testing.T) {
	counter := RuleActions.WithLabelValues("archive_task", ResultOK)
	before := testutil.ToFloat64(counter)

	RecordRuleAction("archive_task", ResultOK)
	RecordRuleAction("archive_task", ResultOK)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecordRealtimePush(t *testing.T) {
	ok := RealtimePushes.WithLabelValues(ResultOK)
	failed := RealtimePushes.WithLabelValues(ResultError)
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordRealtimePush(nil)
	RecordRealtimePush(errors.New("hub closed"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestRecordEmailSend(t *testing.T) {
	failed := EmailJobs.WithLabelValues("failed")
	before := testutil.ToFloat64(failed)

	RecordEmailSend(20*time.Millisecond, nil)
	RecordEmailSend(30*time.Millisecond, errors.New("421 try later"))

	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestHandlerExposesInstruments(t *testing.T) {
	RecurrenceChildren.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "taskkollecta_recurrence_children_created_total"))
}
