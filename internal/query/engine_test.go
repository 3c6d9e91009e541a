package query

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/issuelens/backend/internal/metrics"
)

func TestTrackedCountTagsFailures(t *testing.T) {
	counter := metrics.StoreErrors.WithLabelValues("count")
	before := testutil.ToFloat64(counter)

	n, err := trackedCount(func() (int, error) { return 0, errors.New("count failed") })
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	n, err = trackedCount(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
