package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSinkEvictsOldestFirst(t *testing.T) {
	s := NewSink(3, nil)
	for i := 0; i < 5; i++ {
		s.Systemf("entry %d", i)
	}

	got := s.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, "entry 2", got[0].Message)
	assert.Equal(t, "entry 4", got[2].Message)
}

func TestSinkDefaultCapacity(t *testing.T) {
	s := NewSink(0, nil)
	for i := 0; i < DefaultCapacity+10; i++ {
		s.Progressf("p%d", i)
	}
	require.Len(t, s.Entries(), DefaultCapacity)
	require.Equal(t, fmt.Sprintf("p%d", 10), s.Entries()[0].Message)
}

func TestSinkSeverityAndTimestamp(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSink(10, nil)
	s.now = func() time.Time { return fixed }

	s.Errorf("boom %s", "x")
	s.Successf("ok")

	got := s.Entries()
	require.Len(t, got, 2)
	assert.Equal(t, model.SeverityError, got[0].Severity)
	assert.Equal(t, "boom x", got[0].Message)
	assert.Equal(t, fixed, got[0].Timestamp)
	assert.Equal(t, model.SeveritySuccess, got[1].Severity)
}

func TestSinkMirrorsToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewSink(5, zap.New(core))

	s.Errorf("rpc down")
	s.Systemf("started")

	require.Equal(t, 1, logs.FilterMessage("rpc down").FilterLevelExact(zap.ErrorLevel).Len())
	require.Equal(t, 1, logs.FilterMessage("started").FilterLevelExact(zap.InfoLevel).Len())
}

func TestSinkClear(t *testing.T) {
	s := NewSink(5, nil)
	s.Systemf("a")
	s.Systemf("b")
	s.Clear()

	got := s.Entries()
	require.Len(t, got, 1)
	assert.Equal(t, "Transaction logs cleared.", got[0].Message)
}

func TestSinkSubscribe(t *testing.T) {
	s := NewSink(5, nil)
	ch, cancel := s.Subscribe(4)

	s.Progressf("one")
	s.Progressf("two")

	assert.Equal(t, "one", (<-ch).Message)
	assert.Equal(t, "two", (<-ch).Message)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	s.Progressf("after cancel")
	require.Len(t, s.Entries(), 3)
}

func TestSinkSummary(t *testing.T) {
	s := NewSink(5, nil)
	s.SetSummary(model.Summary{TotalWallets: 2, TotalBalance: "1.5", ActiveProxy: "No proxy"})

	got := s.Summary()
	assert.Equal(t, 2, got.TotalWallets)
	assert.Equal(t, "1.5", got.TotalBalance)
}
