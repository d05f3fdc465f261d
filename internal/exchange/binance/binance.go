package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/exchange"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
	"go.uber.org/zap"
)

const binanceApiBaseUrl = "https://api.binance.com"
const binanceWebsocketBaseUrl = "wss://stream.binance.com:9443"

var Logger = logger.Get()

type BinanceExchange struct {
	apiBaseUrl       string
	websocketBaseUrl string
	apiKeyId         string
	apiKeySecret     string
	rest             *exchange.RestClient
	now              func() time.Time
}

type Options struct {
	ApiBaseUrl       string
	WebsocketBaseUrl string
}

func CreateClient(id string, secret string, opts *Options) *BinanceExchange {
	ex := &BinanceExchange{
		apiBaseUrl:       binanceApiBaseUrl,
		websocketBaseUrl: binanceWebsocketBaseUrl,
		apiKeyId:         id,
		apiKeySecret:     secret,
		rest:             exchange.NewRestClient("binance", 250*time.Millisecond, 4),
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

func (ex *BinanceExchange) GetName() string {
	return domain.Binance.String()
}

func (ex *BinanceExchange) Exchange() domain.ExchangeEnum {
	return domain.Binance
}

// ListSpotSymbols returns every symbol of the public exchange info endpoint.
func (ex *BinanceExchange) ListSpotSymbols(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ex.apiBaseUrl+"/api/v3/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}
	body, err := ex.rest.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("binance exchange info: %w", err)
	}

	var info BinanceExchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode binance exchange info: %w", err)
	}
	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		symbols = append(symbols, s.Symbol)
	}
	return symbols, nil
}

// sign returns the HMAC-SHA256 hex signature of a query string.
func (ex *BinanceExchange) sign(queryString string) string {
	mac := hmac.New(sha256.New, []byte(ex.apiKeySecret))
	mac.Write([]byte(queryString))
	return hex.EncodeToString(mac.Sum(nil))
}

// GetNetworkFees queries the signed capital config endpoint.
func (ex *BinanceExchange) GetNetworkFees(ctx context.Context) (map[string][]domain.NetworkFee, error) {
	queryString := "timestamp=" + strconv.FormatInt(ex.now().UnixMilli(), 10)
	signed := queryString + "&signature=" + ex.sign(queryString)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ex.apiBaseUrl+"/sapi/v1/capital/config/getall?"+signed, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", ex.apiKeyId)

	body, err := ex.rest.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("binance capital config: %w", err)
	}

	var coins []BinanceCoinConfig
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("decode binance capital config: %w", err)
	}
	return feeMapping(coins), nil
}

func feeMapping(coins []BinanceCoinConfig) map[string][]domain.NetworkFee {
	mapping := make(map[string][]domain.NetworkFee, len(coins))
	for _, coin := range coins {
		if coin.Coin == "" {
			continue
		}
		if len(coin.NetworkList) == 0 {
			fee := 0.0
			if coin.WithdrawFee != nil {
				fee = exchange.ParseFloatOrZero(*coin.WithdrawFee)
			}
			mapping[coin.Coin] = []domain.NetworkFee{{Name: "default", Fee: fee}}
			continue
		}

		networks := make([]domain.NetworkFee, 0, len(coin.NetworkList))
		for _, net := range coin.NetworkList {
			if net.Name == "" || net.WithdrawFee == nil || net.WithdrawMin == nil {
				Logger.Debug("Skipping incomplete Binance network", zap.String("coin", coin.Coin), zap.String("network", net.Network))
				continue
			}
			networks = append(networks, domain.NetworkFee{
				Name:        net.Name,
				Fee:         exchange.ParseFloatOrZero(*net.WithdrawFee),
				MinWithdraw: exchange.ParseFloatOrZero(*net.WithdrawMin),
			})
		}
		mapping[coin.Coin] = networks
	}
	return mapping
}

// StreamName returns the combined stream name of a topic.
func StreamName(topic exchange.Topic) string {
	base := strings.ToLower(topic.Symbol)
	if topic.Channel == domain.TickerChannel {
		return base + "@ticker"
	}
	return base + "@depth5@100ms"
}

// streamsQuery joins the stream names of a batch the way the combined
// endpoint expects them, unescaped and separated by slashes.
func streamsQuery(batch []exchange.Topic) string {
	names := make([]string, len(batch))
	for i, topic := range batch {
		names[i] = StreamName(topic)
	}
	return "streams=" + strings.Join(names, "/")
}
