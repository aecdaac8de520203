package backend

// Mode is the connectivity state of a session.
type Mode int32

const (
	// Online issues every operation over the network.
	Online Mode = iota
	// Offline answers every operation with a fixed substitute. There is no way back to Online.
	Offline
)

func (m Mode) String() string {
	switch m {
	case Online:
		return "online"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}
