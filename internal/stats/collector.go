package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bamsammich/snapdiff/internal/driver"
)

const ringSize = 60

// Side identifies one half of a comparison.
type Side int

const (
	Source Side = iota
	Dest
)

func (s Side) String() string {
	if s == Source {
		return "source"
	}
	return "destination"
}

// sideCounters are updated concurrently by crawling goroutines.
type sideCounters struct {
	items atomic.Int64
	dirs  atomic.Int64
	files atomic.Int64
	bytes atomic.Int64
}

// Collector tracks crawl progress using lock-free atomic counters.
type Collector struct {
	sides     [2]sideCounters
	startTime time.Time

	// Ring buffer, written only by the progress ticker's Tick().
	mu        sync.Mutex
	itemsRate [ringSize]int64 // items delta per second, both sides
	ringIdx   int
	ringCount int
	lastItems int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Observer returns a crawl observer that counts items for side.
func (c *Collector) Observer(side Side) driver.Observer {
	s := &c.sides[side]
	return func(it driver.Item) {
		s.items.Add(1)
		if it.Metadata.IsDir() {
			s.dirs.Add(1)
			return
		}
		s.files.Add(1)
		s.bytes.Add(int64(it.Metadata.Size())) //nolint:gosec // G115: file sizes fit in int64
	}
}

// SideSnapshot is a point-in-time read of one side's counters.
type SideSnapshot struct {
	Items int64
	Dirs  int64
	Files int64
	Bytes int64
}

func (s SideSnapshot) String() string {
	return fmt.Sprintf("items=%d dirs=%d files=%d bytes=%d", s.Items, s.Dirs, s.Files, s.Bytes)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Source  SideSnapshot
	Dest    SideSnapshot
	Elapsed time.Duration
}

func (c *Collector) side(s Side) SideSnapshot {
	sc := &c.sides[s]
	return SideSnapshot{
		Items: sc.items.Load(),
		Dirs:  sc.dirs.Load(),
		Files: sc.files.Load(),
		Bytes: sc.bytes.Load(),
	}
}

// Snapshot returns a point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Source:  c.side(Source),
		Dest:    c.side(Dest),
		Elapsed: c.Elapsed(),
	}
}

// Tick records the item delta since the previous tick. Called 1/sec by the
// progress line.
func (c *Collector) Tick() {
	current := c.sides[Source].items.Load() + c.sides[Dest].items.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.itemsRate[c.ringIdx] = current - c.lastItems
	c.lastItems = current
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingItemsPerSec returns average items/sec over the last n samples.
func (c *Collector) RollingItemsPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(seconds, c.ringCount)
	if count <= 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.itemsRate[idx]
	}
	return float64(sum) / float64(count)
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
