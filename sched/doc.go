// Package sched provides the time-domain resource scheduler of an LTE eNB MAC.
//
// # Reading Guide
//
// Start with these files to understand the scheduling kernel:
//   - ue_context.go: per-UE scheduling state (rate history, per-TTI priorities, HARQ handles)
//   - priority.go: rate-fair priority formula and the downlink/uplink orderings
//   - time_cr.go: TTI detection, queue population and the carrier allocation passes
//
// # Architecture
//
// The package owns only scheduling decisions. Everything the decisions depend on
// is reached through small interfaces implemented by the enclosing stack:
//   - UEView / ActiveUsers: buffer status, HARQ handles and CQI of the active UEs
//   - SubframeGrid: remaining RBG capacity of one carrier in one TTI and the
//     bounded allocate-N-RBGs primitive
//   - Observer: optional sink for TTI openings, grants and exclusions
//
// Sub-packages build on these interfaces:
//   - sched/metrics/: Prometheus collectors implementing Observer
//   - sched/trace/: grant and coordination trace records (no dependency on sched/)
//   - sched/simulator/: deterministic multi-carrier scenario driver
//
// A Scheduler instance is single-threaded. The stack calls ScheduleDownlink and
// ScheduleUplink once per carrier per TTI, and RecordCCResult between the pass
// that consumed reserved resources and the pass on the reserved carrier.
package sched
