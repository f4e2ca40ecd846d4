package scrape

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeduplicatorMarkIfNew(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()

	require.True(t, d.MarkIfNew("https://pracuj.pl/offer/1"))
	require.False(t, d.MarkIfNew("https://pracuj.pl/offer/1"))
	require.True(t, d.MarkIfNew("https://pracuj.pl/offer/2"))
	require.Equal(t, 2, d.Len())
}

func TestDeduplicatorCanonicalizesKeys(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()
	d.MarkSeen("https://pracuj.pl/offer/1?utm_source=mail")

	require.True(t, d.SeenBefore("https://pracuj.pl/offer/1"))
	require.True(t, d.SeenBefore("https://PRACUJ.pl/offer/1/"))
	require.False(t, d.MarkIfNew("https://pracuj.pl/offer/1#apply"))
	require.Equal(t, 1, d.Len())
}

func TestDeduplicatorPreseed(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()
	d.Preseed([]string{
		"https://pracuj.pl/offer/1",
		"https://pracuj.pl/offer/2/",
	})

	require.False(t, d.MarkIfNew("https://pracuj.pl/offer/1"))
	require.False(t, d.MarkIfNew("https://pracuj.pl/offer/2"))
	require.True(t, d.MarkIfNew("https://pracuj.pl/offer/3"))
}

func TestDeduplicatorConcurrentMark(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d.MarkIfNew("https://pracuj.pl/offer/contended") {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, won, "exactly one goroutine may claim a URL")
	require.Equal(t, 1, d.Len())
}
