package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemTracker(t *testing.T) {
	ctx := context.Background()

	t.Run("online doctors are listed", func(t *testing.T) {
		tracker := NewMemTracker()

		assert.NoError(t, tracker.SetOnline(ctx, "d1"))
		assert.NoError(t, tracker.SetOnline(ctx, "d2"))

		online, err := tracker.IsOnline(ctx, "d1")
		assert.NoError(t, err)
		assert.True(t, online, "expected d1 to be online")

		ids, err := tracker.OnlineDoctorIds(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"d1", "d2"}, ids, "expected both doctors listed")
	})

	t.Run("offline doctors are excluded", func(t *testing.T) {
		tracker := NewMemTracker()

		assert.NoError(t, tracker.SetOnline(ctx, "d1"))
		assert.NoError(t, tracker.SetOnline(ctx, "d2"))
		assert.NoError(t, tracker.SetOffline(ctx, "d1"))

		online, err := tracker.IsOnline(ctx, "d1")
		assert.NoError(t, err)
		assert.False(t, online, "expected d1 to be offline")

		ids, err := tracker.OnlineDoctorIds(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"d2"}, ids, "expected only d2 listed")
	})

	t.Run("setting online twice keeps a single entry", func(t *testing.T) {
		tracker := NewMemTracker()

		assert.NoError(t, tracker.SetOnline(ctx, "d1"))
		assert.NoError(t, tracker.SetOnline(ctx, "d1"))

		ids, err := tracker.OnlineDoctorIds(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []string{"d1"}, ids)
	})

	t.Run("offline for unknown doctor is a no-op", func(t *testing.T) {
		tracker := NewMemTracker()

		assert.NoError(t, tracker.SetOffline(ctx, "never-seen"))

		ids, err := tracker.OnlineDoctorIds(ctx)
		assert.NoError(t, err)
		assert.Empty(t, ids)
	})

	// The flag is last-known-state: nothing expires it, so a doctor who
	// goes offline without announcing it stays listed.
	t.Run("state persists without heartbeats", func(t *testing.T) {
		tracker := NewMemTracker()

		assert.NoError(t, tracker.SetOnline(ctx, "d1"))

		online, err := tracker.IsOnline(ctx, "d1")
		assert.NoError(t, err)
		assert.True(t, online, "expected stale state to persist")
	})
}
