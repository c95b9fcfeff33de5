package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripedLock_HappyPath(t *testing.T) {
	workerCount := 64
	operationCount := 1000

	l := NewStripedLock(4)

	var workerWg sync.WaitGroup
	startChan := make(chan struct{})
	data := make([]int, workerCount)

	for i := 0; i < workerCount; i++ {
		workerWg.Add(1)

		go func(workerID int) {
			defer workerWg.Done()

			var opWg sync.WaitGroup
			key := []byte(fmt.Sprintf("worker%d", workerID))
			for j := 0; j < operationCount; j++ {
				opWg.Add(1)

				go func() {
					defer opWg.Done()

					<-startChan

					unlock, err := l.Lock(context.Background(), key)
					if err != nil {
						return
					}
					data[workerID]++
					unlock()
				}()
			}
			opWg.Wait()
		}(i)
	}

	close(startChan)
	workerWg.Wait()

	for _, val := range data {
		assert.EqualValues(t, operationCount, val)
	}
}

func TestStripedLock_ContextCancellation(t *testing.T) {
	l := NewStripedLock(1)

	unlock, err := l.Lock(context.Background(), []byte("key"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, []byte("key"))
	assert.Equal(t, context.DeadlineExceeded, err)

	unlock()

	unlock, err = l.Lock(context.Background(), []byte("key"))
	require.NoError(t, err)
	unlock()
}
