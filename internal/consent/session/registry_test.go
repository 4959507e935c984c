package session

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentmgr/internal/identity"
	"consentmgr/internal/platform/metrics"
	id "consentmgr/pkg/domain"
	"consentmgr/pkg/requestcontext"
)

func TestRegistry(t *testing.T) {
	met := metrics.NewWithRegistry(prometheus.NewRegistry())
	built := 0
	reg := NewRegistry(func(v id.VisitorID) *Controller {
		built++
		return New(nil, identity.Fixed(v))
	}, 30*time.Minute, met)

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) context.Context {
		return requestcontext.WithTime(context.Background(), start.Add(d))
	}
	a, b := id.NewVisitorID(), id.NewVisitorID()

	first, created := reg.Get(at(0), a)
	require.True(t, created)
	again, created := reg.Get(at(10*time.Minute), a)
	assert.False(t, created)
	assert.Same(t, first, again)

	_, created = reg.Get(at(20*time.Minute), b)
	assert.True(t, created)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2.0, promtest.ToFloat64(met.ActiveSessions))

	// a was last seen at +10m, b at +20m.
	_, created = reg.Get(at(45*time.Minute), b)
	assert.False(t, created)
	assert.Equal(t, 1, reg.Len(), "idle visitor a is evicted")

	fresh, created := reg.Get(at(46*time.Minute), a)
	assert.True(t, created)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, 3, built)

	assert.Equal(t, 2, reg.Sweep(start.Add(3*time.Hour)))
	assert.Zero(t, reg.Len())
	assert.Zero(t, promtest.ToFloat64(met.ActiveSessions))
}

func TestRegistryZeroTTLKeepsForever(t *testing.T) {
	reg := NewRegistry(func(v id.VisitorID) *Controller {
		return New(nil, identity.Fixed(v))
	}, 0, nil)
	v := id.NewVisitorID()
	reg.Get(context.Background(), v)
	assert.Zero(t, reg.Sweep(time.Now().AddDate(1, 0, 0)))
	assert.Equal(t, 1, reg.Len())
	reg.Wait()
}
