package kvstore

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/volgraph/volgraph/internal/dict"
	"github.com/volgraph/volgraph/internal/xlator"
)

// Throughput reports rolling read/write rates averaged since the
// translator's own init and since the last stats fetch, grounded on the
// original bdb translator's init_kbytes_read / init_kbytes_written
// fields.
type Throughput struct {
	SinceInit       float64
	SinceLastFetch  float64
}

type throughputCounters struct {
	bytesTotal   int64 // atomic
	bytesAtFetch int64
	initTime     time.Time
	lastFetch    time.Time
}

func newThroughputCounters() *throughputCounters {
	now := time.Now()
	return &throughputCounters{initTime: now, lastFetch: now}
}

func (c *throughputCounters) addBytes(n int) {
	atomic.AddInt64(&c.bytesTotal, int64(n))
}

func (c *throughputCounters) sample() Throughput {
	total := atomic.LoadInt64(&c.bytesTotal)
	now := time.Now()

	sinceInit := rate(total, now.Sub(c.initTime))

	prev := atomic.SwapInt64(&c.bytesAtFetch, total)
	sinceLast := rate(total-prev, now.Sub(c.lastFetch))
	c.lastFetch = now

	return Throughput{SinceInit: sinceInit, SinceLastFetch: sinceLast}
}

func rate(bytes int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(bytes) / secs
}

// statsOp implements the management "stats" op: free/total/used disk from
// the export mount, rolling throughput, and the open-file count, reported
// under "clients".
func (k *KV) statsOp() xlator.Result {
	usage, err := disk.Usage(k.exportPath)
	d := dict.New()
	if err == nil {
		d.Set("disk.total", dict.NewUint32Value(uint32(usage.Total)))
		d.Set("disk.free", dict.NewUint32Value(uint32(usage.Free)))
		d.Set("disk.used", dict.NewUint32Value(uint32(usage.Used)))
	}
	tp := k.throughput.sample()
	d.SetString("throughput.since_init", strconv.FormatFloat(tp.SinceInit, 'f', 2, 64))
	d.SetString("throughput.since_last_fetch", strconv.FormatFloat(tp.SinceLastFetch, 'f', 2, 64))
	d.Set("clients", dict.NewUint32Value(uint32(atomic.LoadInt64(&k.openFileCount))))
	return xlator.Result{Dict: d}
}
