package sched

// HARQProc is a handle to a HARQ process owned by the UE's HARQ entity.
// The scheduler reads it and passes it back to the grid; it never mutates it.
type HARQProc struct {
	ID      uint32
	Retx    bool   // a retransmission is pending
	NofRBGs uint32 // RBGs of the original transmission (Retx only)
	TBS     uint32 // transport block size in bytes (Retx only)
}

// UEView is the stack's view of one active UE during the current TTI.
// ueCC arguments are UE-local carrier indices as returned by CarrierIndex.
type UEView interface {
	RNTI() uint16
	Slice() uint8
	// CarrierIndex maps an eNB carrier index to the UE-local index, or -1
	// when the carrier is not active for the UE.
	CarrierIndex(enbCC uint32) int
	DLRetxHarq(tti TTI, ueCC int) *HARQProc
	DLNewTxHarq(tti TTI, ueCC int) *HARQProc
	// ULHarq returns the process due in this TTI, pending a retransmission
	// or free for a new transmission, or nil when it is busy.
	ULHarq(tti TTI, ueCC int) *HARQProc
	PendingDLBytes() uint32
	// PendingULBytes includes the grant implied by a pending scheduling request.
	PendingULBytes() uint32
	CQI(dir Direction, ueCC int) uint32
}

// ActiveUsers is the set of UEs attached to the cell.
type ActiveUsers interface {
	Users() []UEView
	Lookup(rnti uint16) (UEView, bool)
}

// SubframeGrid is the resource grid of one carrier in one TTI.
type SubframeGrid interface {
	TTI() TTI
	Carrier() uint32
	NofRBGs(dir Direction) uint32
	FreeRBGs(dir Direction) uint32
	// Allocate grants at most maxRBGs to the UE for process h and returns the
	// granted bytes, or 0 when the grid or the UE rejects the allocation.
	Allocate(dir Direction, rnti uint16, h *HARQProc, maxRBGs uint32) uint32
}
