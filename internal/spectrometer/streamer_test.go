package spectrometer

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestStreamer_PublishesOnEachTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &recordingSink{}
	dev := newTestDevice(t, nil, nil, WithEventSink(sink))
	clock := clockwork.NewFakeClock()
	streamer := NewStreamer(dev, 100*time.Millisecond, clock, zaptest.NewLogger(t))

	require.NoError(t, streamer.Start())
	assert.True(t, streamer.IsRunning())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 1; i <= 3; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(100 * time.Millisecond)
		require.Eventually(t, func() bool {
			return sink.Count(EventSpectrum) == i
		}, time.Second, time.Millisecond)
	}

	streamer.Stop()
	assert.False(t, streamer.IsRunning())

	for _, ev := range sink.Events() {
		assert.Equal(t, 2048, ev.Length)
		assert.Len(t, ev.Words, 2048)
	}
}

func TestStreamer_StartStopIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dev := newTestDevice(t, nil, nil)
	streamer := NewStreamer(dev, time.Second, clockwork.NewFakeClock(), zaptest.NewLogger(t))

	require.NoError(t, streamer.Start())
	require.NoError(t, streamer.Start())
	streamer.Stop()
	streamer.Stop()

	require.NoError(t, streamer.Start())
	assert.True(t, streamer.IsRunning())
	streamer.Stop()
}
