package domain

import "fmt"

type ExchangeEnum int

const (
	Binance ExchangeEnum = iota
	OKX
)

// ExchangeCount is the number of exchanges tracked per symbol.
const ExchangeCount = 2

func (e ExchangeEnum) String() string {
	return []string{"Binance", "OKX"}[e]
}

// Peer returns the other exchange of the pair.
func (e ExchangeEnum) Peer() ExchangeEnum {
	if e == Binance {
		return OKX
	}
	return Binance
}

func (e ExchangeEnum) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *ExchangeEnum) UnmarshalText(text []byte) error {
	ex, err := ParseExchange(string(text))
	if err != nil {
		return err
	}
	*e = ex
	return nil
}

func ParseExchange(name string) (ExchangeEnum, error) {
	switch name {
	case "Binance":
		return Binance, nil
	case "OKX":
		return OKX, nil
	}
	return 0, fmt.Errorf("unknown exchange %q", name)
}

// Exchanges lists every tracked exchange in index order.
func Exchanges() []ExchangeEnum {
	return []ExchangeEnum{Binance, OKX}
}
