package okx

import "encoding/json"

type OkxResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type OkxInstrument struct {
	InstId   string `json:"instId"`
	InstType string `json:"instType"`
	State    string `json:"state"`
}

type OkxCurrency struct {
	Ccy    string  `json:"ccy"`
	Chain  string  `json:"chain"`
	MaxFee *string `json:"maxFee"`
	MinWd  *string `json:"minWd"`
}

type OkxWebsocketArg struct {
	Channel string `json:"channel"`
	InstId  string `json:"instId"`
}

type OkxWebsocketRequest struct {
	Op   string            `json:"op"`
	Args []OkxWebsocketArg `json:"args"`
}

type OkxWebsocketMessage struct {
	Event string           `json:"event"`
	Op    string           `json:"op"`
	Code  string           `json:"code"`
	Msg   string           `json:"msg"`
	Arg   *OkxWebsocketArg `json:"arg"`
	Data  json.RawMessage  `json:"data"`
}

type OkxTicker struct {
	InstId string `json:"instId"`
	Last   string `json:"last"`
}

type OkxBook struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
	Ts   string     `json:"ts"`
}
