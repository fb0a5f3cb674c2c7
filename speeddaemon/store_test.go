package speeddaemon

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationStore_Record(t *testing.T) {
	s := NewObservationStore()

	s.Record(Observation{Plate: "UN1X", Road: 1, Mile: 10, Timestamp: 300})
	s.Record(Observation{Plate: "UN1X", Road: 1, Mile: 0, Timestamp: 100})
	s.Record(Observation{Plate: "UN1X", Road: 2, Mile: 5, Timestamp: 200})
	s.Record(Observation{Plate: "RE05BKG", Road: 1, Mile: 5, Timestamp: 200})
	history := s.Record(Observation{Plate: "UN1X", Road: 1, Mile: 5, Timestamp: 200})

	assert.Equal(t, []Observation{
		{Plate: "UN1X", Road: 1, Mile: 0, Timestamp: 100},
		{Plate: "UN1X", Road: 1, Mile: 5, Timestamp: 200},
		{Plate: "UN1X", Road: 1, Mile: 10, Timestamp: 300},
	}, history)
	assert.Len(t, s.history(2, "UN1X"), 1)
	assert.Len(t, s.history(1, "RE05BKG"), 1)
	assert.Empty(t, s.history(3, "UN1X"))
}

func TestObservationStore_Record_ReturnsCopy(t *testing.T) {
	s := NewObservationStore()

	history := s.Record(Observation{Plate: "UN1X", Road: 1, Mile: 10, Timestamp: 300})
	history[0].Mile = 99

	assert.Equal(t, uint16(10), s.history(1, "UN1X")[0].Mile)
}

func TestObservationStore_Record_Concurrent(t *testing.T) {
	s := NewObservationStore()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record(Observation{Plate: "UN1X", Road: 1, Mile: uint16(i), Timestamp: uint32(1000 - i)})
		}()
	}
	wg.Wait()

	history := s.history(1, "UN1X")
	require.Len(t, history, 100)
	assert.True(t, slices.IsSortedFunc(history, func(a, b Observation) int {
		return int(a.Timestamp) - int(b.Timestamp)
	}), fmt.Sprint(history))
}
