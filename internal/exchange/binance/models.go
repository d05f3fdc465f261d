package binance

import "encoding/json"

type BinanceExchangeInfo struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
	} `json:"symbols"`
}

type BinanceCoinConfig struct {
	Coin        string                 `json:"coin"`
	WithdrawFee *string                `json:"withdrawFee"`
	NetworkList []BinanceNetworkConfig `json:"networkList"`
}

type BinanceNetworkConfig struct {
	Network     string  `json:"network"`
	Name        string  `json:"name"`
	WithdrawFee *string `json:"withdrawFee"`
	WithdrawMin *string `json:"withdrawMin"`
}

type BinanceStreamMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type BinanceTicker struct {
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
}

type BinanceDepth struct {
	LastUpdateId int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}
