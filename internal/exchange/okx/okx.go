package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/exchange"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/symbols"
	"go.uber.org/zap"
)

const okxApiBaseUrl = "https://www.okx.com"
const okxWebsocketBaseUrl = "wss://ws.okx.com:8443/ws/v5/public"

const currenciesPath = "/api/v5/asset/currencies"

var Logger = logger.Get()

type OkxExchange struct {
	apiBaseUrl       string
	websocketBaseUrl string
	apiKeyId         string
	apiKeySecret     string
	passphrase       string
	quotes           *symbols.QuoteSet
	rest             *exchange.RestClient
	now              func() time.Time
}

type Options struct {
	ApiBaseUrl       string
	WebsocketBaseUrl string
}

// CreateClient returns an OKX client. Instrument ids seen by the client are
// denormalized through quotes, which therefore learns every quote currency.
func CreateClient(id string, secret string, passphrase string, quotes *symbols.QuoteSet, opts *Options) *OkxExchange {
	ex := &OkxExchange{
		apiBaseUrl:       okxApiBaseUrl,
		websocketBaseUrl: okxWebsocketBaseUrl,
		apiKeyId:         id,
		apiKeySecret:     secret,
		passphrase:       passphrase,
		quotes:           quotes,
		rest:             exchange.NewRestClient("okx", 200*time.Millisecond, 5),
		now:              time.Now,
	}
	if opts != nil {
		if opts.ApiBaseUrl != "" {
			ex.apiBaseUrl = opts.ApiBaseUrl
		}
		if opts.WebsocketBaseUrl != "" {
			ex.websocketBaseUrl = opts.WebsocketBaseUrl
		}
	}
	return ex
}

func (ex *OkxExchange) GetName() string {
	return domain.OKX.String()
}

func (ex *OkxExchange) Exchange() domain.ExchangeEnum {
	return domain.OKX
}

func (ex *OkxExchange) get(ctx context.Context, path string, signed bool) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ex.apiBaseUrl+path, nil)
	if err != nil {
		return nil, err
	}
	if signed {
		ex.signRequest(req, path)
	}

	body, err := ex.rest.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var res OkxResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode okx response: %w", err)
	}
	if res.Code != "0" {
		return nil, fmt.Errorf("okx error code %s: %s", res.Code, res.Msg)
	}
	return res.Data, nil
}

// signRequest adds the OK-ACCESS headers. The prehash string is
// timestamp + method + request path + body.
func (ex *OkxExchange) signRequest(req *http.Request, path string) {
	timestamp := ex.now().UTC().Format("2006-01-02T15:04:05.000Z")
	mac := hmac.New(sha256.New, []byte(ex.apiKeySecret))
	mac.Write([]byte(timestamp + http.MethodGet + path))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req.Header.Set("OK-ACCESS-KEY", ex.apiKeyId)
	req.Header.Set("OK-ACCESS-SIGN", signature)
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", ex.passphrase)
	req.Header.Set("Content-Type", "application/json")
}

// ListSpotSymbols returns the denormalized ids of every spot instrument.
func (ex *OkxExchange) ListSpotSymbols(ctx context.Context) ([]string, error) {
	data, err := ex.get(ctx, "/api/v5/public/instruments?instType=SPOT", false)
	if err != nil {
		return nil, fmt.Errorf("okx instruments: %w", err)
	}
	var instruments []OkxInstrument
	if err := json.Unmarshal(data, &instruments); err != nil {
		return nil, fmt.Errorf("decode okx instruments: %w", err)
	}

	out := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, ex.quotes.Denormalize(inst.InstId))
	}
	return out, nil
}

// GetNetworkFees returns the withdrawal chains of every currency. The
// "CCY-" prefix OKX puts in front of chain names is removed.
func (ex *OkxExchange) GetNetworkFees(ctx context.Context) (map[string][]domain.NetworkFee, error) {
	data, err := ex.get(ctx, currenciesPath, true)
	if err != nil {
		return nil, fmt.Errorf("okx currencies: %w", err)
	}
	var currencies []OkxCurrency
	if err := json.Unmarshal(data, &currencies); err != nil {
		return nil, fmt.Errorf("decode okx currencies: %w", err)
	}

	mapping := make(map[string][]domain.NetworkFee)
	for _, c := range currencies {
		if c.Ccy == "" || c.Chain == "" || c.MaxFee == nil || c.MinWd == nil {
			Logger.Debug("Skipping incomplete OKX chain", zap.String("ccy", c.Ccy), zap.String("chain", c.Chain))
			continue
		}
		mapping[c.Ccy] = append(mapping[c.Ccy], domain.NetworkFee{
			Name:        strings.TrimPrefix(c.Chain, c.Ccy+"-"),
			Fee:         exchange.ParseFloatOrZero(*c.MaxFee),
			MinWithdraw: exchange.ParseFloatOrZero(*c.MinWd),
		})
	}
	return mapping, nil
}
