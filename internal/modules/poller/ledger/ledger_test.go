package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkThenSeen(t *testing.T) {
	l := New(0)

	assert.False(t, l.Seen("m1"))
	l.Mark("m1")
	assert.True(t, l.Seen("m1"))

	// Marking again is a no-op
	l.Mark("m1")
	assert.Equal(t, 1, l.Len())
}

func TestMarkIfNew(t *testing.T) {
	l := New(0)

	assert.True(t, l.MarkIfNew("m1"))
	assert.False(t, l.MarkIfNew("m1"))
	assert.True(t, l.Seen("m1"))
}

func TestCapacityEvictsInInsertionOrder(t *testing.T) {
	l := New(3)

	l.Mark("a")
	l.Mark("b")
	l.Mark("c")
	l.Mark("d")

	assert.Equal(t, 3, l.Len())
	assert.False(t, l.Seen("a"))
	assert.True(t, l.Seen("b"))
	assert.True(t, l.Seen("d"))
}

func TestConcurrentMarkIfNewIsExclusive(t *testing.T) {
	l := New(0)

	const goroutines = 50
	wins := make(chan bool, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- l.MarkIfNew("contested")
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one goroutine may claim an id")
}

func TestConcurrentDistinctIds(t *testing.T) {
	l := New(0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Mark(fmt.Sprintf("id-%d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, l.Len())
}
