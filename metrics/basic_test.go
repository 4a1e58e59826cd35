package metrics

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicProvider_Counter_SharedByName(t *testing.T) {
	p := NewBasicProvider()

	c1 := p.Counter("units_submitted", WithUnit("1"), WithDescription("submitted units"))
	c2 := p.Counter("units_submitted")
	require.Same(t, c1.(*BasicCounter), c2.(*BasicCounter))

	c1.Add(3)
	c2.Add(2)
	require.EqualValues(t, 5, p.CounterValue("units_submitted"))

	other := p.Counter("other")
	require.NotSame(t, c1.(*BasicCounter), other.(*BasicCounter))

	cfg, ok := p.Config("units_submitted")
	require.True(t, ok)
	require.Equal(t, InstrumentConfig{Description: "submitted units", Unit: "1"}, cfg)
}

func TestBasicProvider_UnknownNamesReadAsZero(t *testing.T) {
	p := NewBasicProvider()

	require.Zero(t, p.CounterValue("missing"))
	require.Zero(t, p.UpDownValue("missing"))
	_, ok := p.HistogramSnapshot("missing")
	require.False(t, ok)
	_, ok = p.Config("missing")
	require.False(t, ok)
}

func TestBasicProvider_UpDownCounter_Moves(t *testing.T) {
	p := NewBasicProvider()
	u := p.UpDownCounter("queue_depth")

	u.Add(+3)
	u.Add(-1)
	u.Add(+10)
	require.EqualValues(t, 12, p.UpDownValue("queue_depth"))
}

func TestBasicProvider_Histogram_RecordsStats(t *testing.T) {
	p := NewBasicProvider()
	h := p.Histogram("exec_seconds")

	h.Record(0.1)
	h.Record(0.3)
	h.Record(0.2)

	s, ok := p.HistogramSnapshot("exec_seconds")
	require.True(t, ok)
	require.EqualValues(t, 3, s.Count)
	require.InDelta(t, 0.1, s.Min, 1e-9)
	require.InDelta(t, 0.3, s.Max, 1e-9)
	require.InDelta(t, 0.6, s.Sum, 1e-9)
	require.InDelta(t, 0.2, s.Mean, 1e-9)
}

func TestBasicProvider_ConcurrentUse(t *testing.T) {
	p := NewBasicProvider()

	goroutines := runtime.NumCPU() * 2
	iters := 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				p.Counter("hits").Add(1)
				if (i+id)%2 == 0 {
					p.UpDownCounter("inflight").Add(+1)
				} else {
					p.UpDownCounter("inflight").Add(-1)
				}
				p.Histogram("latency").Record(float64(i%10) / 100)
			}
		}(g)
	}
	wg.Wait()

	require.EqualValues(t, goroutines*iters, p.CounterValue("hits"))
	require.Zero(t, p.UpDownValue("inflight"))
	s, _ := p.HistogramSnapshot("latency")
	require.EqualValues(t, goroutines*iters, s.Count)
	require.GreaterOrEqual(t, s.Min, 0.0)
	require.LessOrEqual(t, s.Max, 0.09+1e-9)
}

func TestNoopProvider_DiscardsEverything(t *testing.T) {
	p := NewNoopProvider()
	require.NotPanics(t, func() {
		p.Counter("a").Add(1)
		p.UpDownCounter("b").Add(-1)
		p.Histogram("c").Record(1.5)
	})
}
