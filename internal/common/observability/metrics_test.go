package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZeroValueIsSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		o.RecordAssessment(context.Background(), "approved", time.Millisecond)
		o.RecordJobProcessed(context.Background(), "completed")
		o.Shutdown()
	})

	empty := &Observability{}
	assert.NotPanics(t, func() {
		empty.RecordJobDuration(context.Background(), time.Second, "failed")
	})
}

func TestNewRecordsAssessments(t *testing.T) {
	o := New("credx-fairscore-test")
	defer o.Shutdown()

	assert.NotNil(t, o.assessmentCounter)
	assert.NotPanics(t, func() {
		o.RecordAssessment(context.Background(), "rejected", 3*time.Millisecond)
	})
}
