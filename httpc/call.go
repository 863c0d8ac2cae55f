package httpc

// Call names one in-flight exchange. The caller holds the single
// authoritative value and keeps driving it through CallSend/CallRecv
// until a terminal state, after which the engine invalidates it.
//
// Layout of the packed field: (callID:16)<<16 | (conID:16). The second
// field is a reserved slot, always the maximum unsigned value; it is
// compared for full equality but never interpreted.
type Call struct {
	id  uint32
	res uint
}

const emptyID = 0xffffffff

// EmptyCall returns the sentinel identity. No live call ever carries
// this bit pattern.
func EmptyCall() Call {
	return Call{id: emptyID, res: ^uint(0)}
}

func newCall(conID, callID uint16) Call {
	return Call{id: uint32(callID)<<16 | uint32(conID), res: ^uint(0)}
}

// IsEmpty reports whether the identity is the sentinel, by full
// bitwise comparison of both fields.
func (c Call) IsEmpty() bool {
	return c == EmptyCall()
}

// Invalidate overwrites the identity with the sentinel. One-way:
// nothing revives an invalidated Call. Calling it twice is a no-op.
func (c *Call) Invalidate() {
	*c = EmptyCall()
}

// Ref projects the identity to a routing key for matching readiness
// events. The ref carries no lifecycle operations.
func (c Call) Ref() CallRef {
	return CallRef{id: c.id, res: c.res}
}

// IsRef reports whether r was derived from this identity. Only the
// packed 32-bit field takes part; the reserved field is excluded.
// Equality here cannot detect a reissued (conID, callID) pair; the
// engine tracks liveness separately.
func (c Call) IsRef(r CallRef) bool {
	return c.id == r.id
}

func (c Call) conID() uint16 {
	return uint16(c.id & 0xffff)
}

func (c Call) callID() uint16 {
	return uint16(c.id >> 16)
}

// CallRef is a copyable lookup key for an exchange. It is comparable
// (usable directly as a map key) and totally ordered via Compare; it
// never changes a call's lifecycle.
type CallRef struct {
	id  uint32
	res uint
}

func newRef(conID, callID uint16) CallRef {
	return CallRef{id: uint32(callID)<<16 | uint32(conID), res: ^uint(0)}
}

// Compare returns -1, 0 or 1 ordering refs by packed field first,
// reserved field second.
func (r CallRef) Compare(o CallRef) int {
	switch {
	case r.id < o.id:
		return -1
	case r.id > o.id:
		return 1
	case r.res < o.res:
		return -1
	case r.res > o.res:
		return 1
	}
	return 0
}

func (r CallRef) conID() uint16 {
	return uint16(r.id & 0xffff)
}
