package chrono

import (
	"testing"
	"time"
	"streamstats-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardImpl(t *testing.T) {
	local, err := NewStandardImpl("")
	require.NoError(t, err)
	require.Equal(t, time.Local, local.Location())

	utc, err := NewStandardImpl("UTC")
	require.NoError(t, err)
	now := utc.Now()
	require.Equal(t, time.UTC, now.Location())
	require.Zero(t, now.Second())
	require.Zero(t, now.Nanosecond())

	_, err = NewStandardImpl("Not/AZone")
	require.Error(t, err)
}

func TestFixedImpl(t *testing.T) {
	fixed := FixedImpl{Time: time.Date(2023, time.July, 24, 13, 5, 42, 0, time.UTC)}
	require.Equal(t, time.Date(2023, time.July, 24, 13, 5, 0, 0, time.UTC), fixed.Now())
}

func TestStandardCron(t *testing.T) {
	c := NewStandardCron(telemetry.NewRecorder(), time.UTC)
	require.Error(t, c.Cron("not a spec", func() {}))

	fired := make(chan struct{}, 1)
	require.NoError(t, c.Cron("@every 10ms", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}))
	c.Start()
	defer c.Stop()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("cron job never fired")
	}
}
