// Package iosched implements block-device request elevators.
//
// # Reading Guide
//
//   - request.go: Request and Direction
//   - queue.go: RequestQueue, the per-direction FIFO
//   - rwfifo.go: the read/write FIFO elevator and its dispatch policy
//
// # Architecture
//
// An elevator sits between a producer (the host block layer admitting I/O)
// and a consumer (the device driver pulling the next request). It never
// performs I/O and never blocks: Dispatch either returns a request or nil.
//
// Sub-packages:
//   - iosched/host/: discrete-event host block layer driving an elevator
//   - iosched/workload/: synthetic workload generation
//   - iosched/trace/: dispatch decision records
//
// # Key Interfaces
//
//   - Elevator: admission, dispatch, neighbor lookup, teardown
//   - CounterReporter: run counters for tracing
//   - Tunable: named string-valued settings (max_reads, max_writes, ...)
//
// Elevators are not thread-safe. Hosts that drive one elevator from several
// goroutines wrap it in Locked. Separate instances share nothing.
package iosched
