package domain

type SessionStateEnum int

const (
	Connecting SessionStateEnum = iota
	Subscribed
	Draining
	Failed
)

func (e SessionStateEnum) String() string {
	return []string{"Connecting", "Subscribed", "Draining", "Failed"}[e]
}

type ChannelEnum int

const (
	TickerChannel ChannelEnum = iota
	DepthChannel
)

func (e ChannelEnum) String() string {
	return []string{"Ticker", "Depth"}[e]
}
