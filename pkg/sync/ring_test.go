package sync

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_Consistency(t *testing.T) {
	r := newRing(64, 200)

	for i := 0; i < 256; i++ {
		key := []byte(fmt.Sprintf("depositor%d", i))
		slot := r.shard(key)
		assert.True(t, slot >= 0 && slot < 64)

		for j := 0; j < 16; j++ {
			assert.Equal(t, slot, r.shard(key))
		}
	}
}

func TestRing_Distribution(t *testing.T) {
	slots := 5
	iterations := 200000
	marginOfError := 0.15
	expectedFrequency := iterations / slots

	r := newRing(uint(slots), 200)

	hits := make(map[int]int)
	for i := 0; i < iterations; i++ {
		hits[r.shard([]byte(fmt.Sprintf("key%d", i)))]++
	}

	assert.Len(t, hits, slots)
	for _, hitCount := range hits {
		diff := math.Abs(float64(hitCount - expectedFrequency))
		assert.True(t, diff/float64(expectedFrequency) < marginOfError)
	}
}
