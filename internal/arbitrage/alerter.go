package arbitrage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

// AlertSink delivers the best opportunity of a cycle out of band.
type AlertSink interface {
	Alert(ctx context.Context, sim domain.TradeSimulation) error
}

// LogSink appends every opportunity of a cycle to durable storage.
type LogSink interface {
	Append(ctx context.Context, sims []domain.TradeSimulation) error
}

type DiscordAlerter struct {
	client webhook.Client
}

func NewDiscordAlerter(webhookUrl string) (*DiscordAlerter, error) {
	client, err := webhook.NewWithURL(webhookUrl)
	if err != nil {
		return nil, fmt.Errorf("create discord webhook: %w", err)
	}
	return &DiscordAlerter{client: client}, nil
}

func (a *DiscordAlerter) Alert(ctx context.Context, sim domain.TradeSimulation) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := a.client.CreateEmbeds([]discord.Embed{BuildEmbed(sim)}, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("send discord alert: %w", err)
	}
	return nil
}

func (a *DiscordAlerter) Close(ctx context.Context) {
	a.client.Close(ctx)
}

func BuildEmbed(sim domain.TradeSimulation) discord.Embed {
	color := 0x00ff00
	if sim.NetProfit < 0 {
		color = 0xff0000
	}
	return discord.NewEmbedBuilder().
		SetTitle("Arbitrage opportunity: " + sim.Symbol).
		SetColor(color).
		AddField("Buy On", sim.BuyExchange.String(), true).
		AddField("Sell On", sim.SellExchange.String(), true).
		AddField("Network", sim.Network, true).
		AddField("\u200B", "\u200B", false).
		AddField("Adjusted Budget", fmt.Sprintf("%f", sim.AdjustedBudget), true).
		AddField("Bought", fmt.Sprintf("%f", sim.Quantities.Bought), true).
		AddField("After Withdrawal", fmt.Sprintf("%f", sim.Quantities.AfterWithdrawal), true).
		AddField("Avg Buy Price", fmt.Sprintf("%f", sim.BuyPrices.Average), true).
		AddField("Avg Sell Price", fmt.Sprintf("%f", sim.SellPrices.Average), true).
		AddField("Withdrawal Fee", fmt.Sprintf("%f", sim.Fees.WithdrawalFeeAsset), true).
		AddField("\u200B", "\u200B", false).
		AddField("Net Profit", fmt.Sprintf("%f", sim.NetProfit), true).
		AddField("Net Profit %", fmt.Sprintf("%.4f", sim.NetProfitPercentage), true).
		SetTimestamp(sim.Timestamp).
		Build()
}

// LogAlerter writes alerts to the arbitrage log when no webhook is configured.
type LogAlerter struct{}

func (LogAlerter) Alert(ctx context.Context, sim domain.TradeSimulation) error {
	jsonBytes, err := json.Marshal(sim)
	if err != nil {
		return err
	}
	Logger.Info("Best opportunity: " + sim.Symbol + " " + fmt.Sprintf("%.4f%%", sim.NetProfitPercentage))
	ArbitrageLogger.Info(string(jsonBytes))
	return nil
}
