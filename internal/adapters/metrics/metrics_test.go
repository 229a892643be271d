package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomsi-org/atomsi-dao/internal/domain/models"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.ProposalTransition(models.ProposalStateApproved)
	m.ProposalTransition(models.ProposalStateApproved)
	m.VoteCast(models.VoteYes)
	m.TreasuryTransition(models.TransactionStatusExecuted)
	m.ExecutionFailed("proposal")
	m.ObserveSweep(time.Now(), 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProposalTransitions.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesCast.WithLabelValues("yes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TreasuryTransitions.WithLabelValues("executed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionFailures.WithLabelValues("proposal")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SweepFinalized))
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.VoteCast(models.VoteNo)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `atomsi_votes_cast_total{choice="no"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
