package transport

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrLimiterCoalescesRepeats(t *testing.T) {
	l := newErrLimiter()
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("dial refused"))
	assert.False(t, l.allow("dial refused"), "identical error inside coalesce window")

	now = now.Add(2 * time.Second)
	assert.False(t, l.allow("dial refused"))
}

func TestErrLimiterSuppressWindow(t *testing.T) {
	l := newErrLimiter()
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("dial refused"))

	// Past the coalesce window but inside the suppress window.
	now = now.Add(10 * time.Second)
	assert.False(t, l.allow("dial refused"))

	now = now.Add(suppressWindow)
	assert.True(t, l.allow("dial refused"))
}

func TestErrLimiterDistinctFingerprints(t *testing.T) {
	l := newErrLimiter()
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("dial refused"))
	assert.True(t, l.allow("handshake timeout"))
	assert.False(t, l.allow("dial refused"))
}

func TestErrLimiterEvictsOldest(t *testing.T) {
	l := newErrLimiter()
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	for i := 0; i < errorHistoryKeep; i++ {
		now = now.Add(time.Second)
		assert.True(t, l.allow(fmt.Sprintf("err-%d", i)))
	}

	// The next fingerprint pushes out err-0, so err-0 reports again even
	// though no suppress window has elapsed.
	now = now.Add(time.Second)
	assert.True(t, l.allow("err-new"))
	assert.True(t, l.allow("err-0"))
	assert.False(t, l.allow("err-5"))
}
