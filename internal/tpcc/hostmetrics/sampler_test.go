package hostmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestOSSampler_Collect(t *testing.T) {
	s := NewOSSampler(clocktesting.NewFakeClock(time.Now()))
	metrics := s.Collect(context.Background())

	assert.Contains(t, metrics, "cpuCores")
	assert.Contains(t, metrics, "memoryTotal")
	assert.Greater(t, metrics["cpuCores"], 0)
}

func TestOSSampler_Rates(t *testing.T) {
	clock := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	readings := []ioTotals{
		{diskRead: 1000, diskWrite: 2000, netRecv: 500, netSent: 100},
		{diskRead: 5000, diskWrite: 2000, netRecv: 100, netSent: 300},
	}
	s := &OSSampler{
		clock: clock,
		readIO: func(ctx context.Context) (ioTotals, error) {
			r := readings[0]
			readings = readings[1:]
			return r, nil
		},
		lastRead: clock.Now(),
	}
	s.previous, _ = s.readIO(context.Background())

	clock.Step(2 * time.Second)
	metrics := map[string]any{}
	s.collectIO(context.Background(), metrics)

	assert.Equal(t, uint64(5000), metrics["diskReadBytes"])
	assert.Equal(t, int64(2000), metrics["diskReadBytesPerSec"])
	assert.Equal(t, int64(0), metrics["diskWriteBytesPerSec"])
	// Counter reset.
	assert.Equal(t, int64(0), metrics["networkRecvBytesPerSec"])
	assert.Equal(t, int64(100), metrics["networkSentBytesPerSec"])
}

func TestOSSampler_IOFailureLeavesKeysOut(t *testing.T) {
	s := &OSSampler{
		clock: clocktesting.NewFakeClock(time.Now()),
		readIO: func(ctx context.Context) (ioTotals, error) {
			return ioTotals{}, errors.New("no counters")
		},
	}
	metrics := map[string]any{}
	s.collectIO(context.Background(), metrics)
	assert.Empty(t, metrics)
}

func TestMerge(t *testing.T) {
	first := SamplerFunc(func(ctx context.Context) map[string]any {
		return map[string]any{"cpuUsage": 10.0, "cpuCores": 4}
	})
	second := SamplerFunc(func(ctx context.Context) map[string]any {
		return map[string]any{"cpuUsage": 55.5, "ioReads": int64(7)}
	})

	metrics := Merge(first, nil, second).Collect(context.Background())
	assert.Equal(t, map[string]any{"cpuUsage": 55.5, "cpuCores": 4, "ioReads": int64(7)}, metrics)
}
