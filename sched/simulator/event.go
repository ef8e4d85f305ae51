package simulator

import (
	"container/heap"

	"github.com/XiaomingSong1670/srsran-cr/sched"
)

// EventType orders events that fall on the same tick.
type EventType int

const (
	EventUEJoin EventType = iota
	EventUELeave
	EventCQIReport
	EventDLData
	EventULData
)

// Event is a scenario input applied at the start of its tick, before the
// scheduler runs.
type Event interface {
	Tick() int64
	Type() EventType
	Apply(s *Simulator)
}

// UEJoinEvent attaches a UE to the cell.
type UEJoinEvent struct {
	At  int64
	Cfg UEConfig
}

func (e *UEJoinEvent) Tick() int64     { return e.At }
func (e *UEJoinEvent) Type() EventType { return EventUEJoin }

// Apply registers the UE with the default CQI on all its carriers.
func (e *UEJoinEvent) Apply(s *Simulator) {
	s.addUE(e.Cfg)
}

// UELeaveEvent detaches a UE and drops its scheduling history.
type UELeaveEvent struct {
	At   int64
	RNTI uint16
}

func (e *UELeaveEvent) Tick() int64     { return e.At }
func (e *UELeaveEvent) Type() EventType { return EventUELeave }

// Apply removes the UE.
func (e *UELeaveEvent) Apply(s *Simulator) {
	s.removeUE(e.RNTI)
}

// CQIReportEvent updates the channel quality of one UE on one eNB carrier.
type CQIReportEvent struct {
	At      int64
	RNTI    uint16
	Carrier uint32
	Dir     sched.Direction
	CQI     uint32
}

func (e *CQIReportEvent) Tick() int64     { return e.At }
func (e *CQIReportEvent) Type() EventType { return EventCQIReport }

// Apply stores the report; reports for unknown UEs or inactive carriers are dropped.
func (e *CQIReportEvent) Apply(s *Simulator) {
	ue, ok := s.ues[e.RNTI]
	if !ok {
		return
	}
	ue.setCQI(e.Dir, e.Carrier, e.CQI)
}

// DataEvent adds bytes to a UE buffer.
type DataEvent struct {
	At    int64
	RNTI  uint16
	Dir   sched.Direction
	Bytes uint32
}

func (e *DataEvent) Tick() int64 { return e.At }

func (e *DataEvent) Type() EventType {
	if e.Dir == sched.Uplink {
		return EventULData
	}
	return EventDLData
}

// Apply enqueues the bytes; data for UEs not attached is dropped.
func (e *DataEvent) Apply(s *Simulator) {
	ue, ok := s.ues[e.RNTI]
	if !ok {
		return
	}
	ue.enqueue(e.Dir, e.Bytes)
}

type eventEntry struct {
	event Event
	seqID int64
}

// EventHeap is a min-heap ordered by (Tick, Type, insertion order).
type EventHeap struct {
	entries []eventEntry
	nextSeq int64
}

// NewEventHeap creates an empty event heap.
func NewEventHeap() *EventHeap {
	h := &EventHeap{entries: make([]eventEntry, 0)}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *EventHeap) Len() int {
	return len(h.entries)
}

// Less implements heap.Interface with deterministic ordering
func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.entries[i], h.entries[j]
	if ei.event.Tick() != ej.event.Tick() {
		return ei.event.Tick() < ej.event.Tick()
	}
	if ei.event.Type() != ej.event.Type() {
		return ei.event.Type() < ej.event.Type()
	}
	return ei.seqID < ej.seqID
}

// Swap implements heap.Interface
func (h *EventHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

// Push implements heap.Interface
func (h *EventHeap) Push(x interface{}) {
	h.entries = append(h.entries, x.(eventEntry))
}

// Pop implements heap.Interface
func (h *EventHeap) Pop() interface{} {
	old := h.entries
	n := len(old)
	item := old[n-1]
	h.entries = old[0 : n-1]
	return item
}

// Schedule adds an event to the heap.
func (h *EventHeap) Schedule(e Event) {
	heap.Push(h, eventEntry{event: e, seqID: h.nextSeq})
	h.nextSeq++
}

// PopNext removes and returns the next event, or nil when empty.
func (h *EventHeap) PopNext() Event {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(eventEntry).event
}

// Peek returns the next event without removing it.
func (h *EventHeap) Peek() Event {
	if h.Len() == 0 {
		return nil
	}
	return h.entries[0].event
}
