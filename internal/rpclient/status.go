package rpclient

// Status описывает состояние соединения. В каждый момент активно ровно одно значение.
type Status int32

const (
	NotConnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case NotConnected:
		return "NOT_CONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}
