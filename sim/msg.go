package sim

// A RemotePort names the port at the other end of a connection.
type RemotePort string

// A Msg travels from one port to another.
type Msg interface {
	Meta() *MsgMeta
	Clone() Msg
}

// MsgMeta is the routing information every message carries.
type MsgMeta struct {
	ID           string
	Src, Dst     RemotePort
	TrafficClass string
	TrafficBytes int
}

// A Rsp answers the request whose ID GetRspTo returns.
type Rsp interface {
	Msg
	GetRspTo() string
}
