// Package host drives an elevator the way a block layer does: requests
// arrive over simulated time, are merged with sector-adjacent queued
// requests or admitted, get pulled into a device queue of bounded depth,
// and complete after a modeled service time. A run ends by tearing the
// elevator down, which requires it to be idle.
package host

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/SA0000000/rwfifo-io/iosched"
	"github.com/SA0000000/rwfifo-io/iosched/trace"
)

// Merge kinds, as recorded in metrics and traces.
const (
	MergeBack     = "back"     // new request appended to a queued one
	MergeFront    = "front"    // new request prepended to a queued one
	MergeRequests = "requests" // two queued requests fused after a merge
)

// Config holds host-side parameters.
type Config struct {
	Device     DeviceConfig
	TraceLevel trace.TraceLevel
}

// Host owns the simulated clock, the event queue and the device, and drives
// one elevator for one run.
type Host struct {
	Clock int64

	elevator iosched.Elevator
	cfg      Config
	events   *EventHeap
	dev      *device
	index    *mergeIndex
	inflight int
	queued   [2]int // requests sitting in the elevator, per direction

	// absorbed lists the requests merged into a live request; they complete with it.
	absorbed map[*iosched.Request][]*iosched.Request

	lastDir  iosched.Direction
	hasLast  bool
	metrics  *Metrics
	trace    *trace.DispatchTrace
	finished bool
}

// New creates a host around e. Panics on an invalid device config, like the
// iosched constructors do on an invalid scheduler config.
func New(e iosched.Elevator, cfg Config) *Host {
	if e == nil {
		panic("host: nil elevator")
	}
	if err := cfg.Device.Validate(); err != nil {
		panic(fmt.Sprintf("host: invalid device config: %v", err))
	}
	if cfg.TraceLevel == "" {
		cfg.TraceLevel = trace.TraceLevelNone
	}
	dt := trace.NewDispatchTrace(e.Name(), cfg.TraceLevel)
	m := newMetrics(dt.RunID, e.Name())
	if c, ok := e.(interface{ Config() iosched.Config }); ok {
		ec := c.Config()
		m.Config = &ec
	}
	return &Host{
		elevator: e,
		cfg:      cfg,
		events:   NewEventHeap(),
		dev:      &device{cfg: cfg.Device},
		index:    newMergeIndex(),
		absorbed: make(map[*iosched.Request][]*iosched.Request),
		metrics:  m,
		trace:    dt,
	}
}

// Trace returns the decision trace collected so far.
func (h *Host) Trace() *trace.DispatchTrace { return h.trace }

// Metrics returns the metrics collected so far.
func (h *Host) Metrics() *Metrics { return h.metrics }

// Schedule queues an event.
func (h *Host) Schedule(ev Event) {
	h.events.Schedule(ev)
}

// Run feeds reqs in at their arrival times, processes events until none
// remain and then tears the elevator down. A host runs once.
func (h *Host) Run(reqs []*iosched.Request) *Metrics {
	if h.finished {
		panic("host: Run called twice")
	}
	for _, r := range reqs {
		h.metrics.dir(r.Dir).Arrived++
		h.Schedule(&ArrivalEvent{time: r.ArrivalTime, Request: r})
	}
	for {
		ev := h.events.PopNext()
		if ev == nil {
			break
		}
		if ev.Timestamp() < h.Clock {
			panic(fmt.Sprintf("host: event at %d scheduled in the past (clock %d)", ev.Timestamp(), h.Clock))
		}
		h.Clock = ev.Timestamp()
		ev.Execute(h)
	}
	h.finished = true
	h.elevator.Exit()
	h.metrics.Read.finalize()
	h.metrics.Write.finalize()
	logrus.Infof("host run %s finished at %d ticks: %d requests completed", h.metrics.RunID, h.Clock, h.metrics.Completed())
	return h.metrics
}

// frontMergesEnabled reads the elevator's front_merges tunable so changes made
// through the attribute surface take effect on the next arrival.
func (h *Host) frontMergesEnabled() bool {
	t, ok := h.elevator.(iosched.Tunable)
	if !ok {
		return false
	}
	v, err := t.ShowAttr(iosched.AttrFrontMerges)
	return err == nil && v == "1"
}

func (h *Host) fits(a, b *iosched.Request) bool {
	return a.Sectors+b.Sectors <= h.cfg.Device.MaxMergeSectors
}

// admit merges r into a queued request when possible, otherwise hands it to the elevator.
func (h *Host) admit(r *iosched.Request) {
	if h.cfg.Device.MaxMergeSectors > 0 {
		if h.tryBackMerge(r) || h.tryFrontMerge(r) {
			return
		}
	}
	h.elevator.Admit(r)
	h.index.insert(r)
	h.queued[r.Dir]++
	h.metrics.MaxQueued = max(h.metrics.MaxQueued, h.queued[iosched.Read]+h.queued[iosched.Write])
}

func (h *Host) tryBackMerge(r *iosched.Request) bool {
	into := h.index.backCandidate(r, h.cfg.Device.MaxMergeSectors)
	if into == nil || !h.fits(into, r) {
		return false
	}
	// start sector is unchanged, so the index key stays valid
	into.Sectors += r.Sectors
	h.absorb(into, r, MergeBack)

	if next := h.elevator.Successor(into); next != nil && next.Dir == into.Dir && next.Sector == into.End() && h.fits(into, next) {
		h.fuse(into, next)
	}
	return true
}

func (h *Host) tryFrontMerge(r *iosched.Request) bool {
	if !h.frontMergesEnabled() {
		return false
	}
	into := h.index.frontCandidate(r)
	if into == nil || !h.fits(into, r) {
		return false
	}
	h.index.delete(into)
	into.Sector = r.Sector
	into.Sectors += r.Sectors
	h.index.insert(into)
	h.absorb(into, r, MergeFront)

	if prev := h.elevator.Predecessor(into); prev != nil && prev.Dir == into.Dir && prev.End() == into.Sector && h.fits(prev, into) {
		h.fuse(prev, into)
	}
	return true
}

// fuse folds the queued request next, which starts where r ends, into r.
// Both share a direction. next leaves the elevator through MergedRequests and r keeps its FIFO position.
func (h *Host) fuse(r, next *iosched.Request) {
	h.index.delete(next)
	r.Sectors += next.Sectors
	h.elevator.MergedRequests(r, next)
	h.queued[next.Dir]--
	h.absorb(r, next, MergeRequests)
}

func (h *Host) absorb(into, r *iosched.Request, kind string) {
	h.absorbed[into] = append(h.absorbed[into], r)
	h.absorbed[into] = append(h.absorbed[into], h.absorbed[r]...)
	delete(h.absorbed, r)
	h.metrics.dir(r.Dir).Merged++
	h.metrics.MergesByKind[kind]++
	logrus.Debugf("[tick %07d] %s merge: %s absorbed into %s (%d+%d)", h.Clock, kind, r.ID, into.ID, into.Sector, into.Sectors)
	if h.trace.Enabled() {
		h.trace.RecordMerge(trace.MergeRecord{Clock: h.Clock, Into: into.ID, Absorbed: r.ID, Kind: kind})
	}
}

// pump pulls dispatches while the device queue has room.
func (h *Host) pump() {
	for h.inflight < h.cfg.Device.Depth {
		readsPending, writesPending := h.queued[iosched.Read], h.queued[iosched.Write]
		r := h.elevator.Dispatch()
		if r == nil {
			return
		}
		h.index.delete(r)
		h.queued[r.Dir]--
		h.inflight++
		r.DispatchTime = h.Clock

		if h.hasLast && r.Dir != h.lastDir {
			h.metrics.DirectionSwitches++
		}
		h.hasLast, h.lastDir = true, r.Dir
		stats := h.metrics.dir(r.Dir)
		stats.Dispatched++
		stats.Sectors += r.Sectors

		done := h.dev.submit(h.Clock, r)
		logrus.Debugf("[tick %07d] dispatch %s %s (%d+%d), completes at %d", h.Clock, r.Dir, r.ID, r.Sector, r.Sectors, done)
		if h.trace.Enabled() {
			rec := trace.DispatchRecord{
				Clock:         h.Clock,
				RequestID:     r.ID,
				Direction:     r.Dir.String(),
				ReadsPending:  readsPending,
				WritesPending: writesPending,
			}
			if c, ok := iosched.CountersOf(h.elevator); ok {
				rec.ReadCount, rec.WriteCount = c.ReadCount, c.WriteCount
			}
			h.trace.RecordDispatch(rec)
		}
		h.Schedule(&CompletionEvent{time: done, Request: r})
	}
}

// complete retires r together with every request merged into it.
func (h *Host) complete(r *iosched.Request) {
	h.inflight--
	h.metrics.Makespan = h.Clock
	for _, done := range append([]*iosched.Request{r}, h.absorbed[r]...) {
		done.DispatchTime = r.DispatchTime
		done.CompletionTime = h.Clock
		h.metrics.dir(done.Dir).record(h.Clock - done.ArrivalTime)
	}
	delete(h.absorbed, r)
}
