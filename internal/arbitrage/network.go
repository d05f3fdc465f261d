package arbitrage

import (
	"regexp"
	"sort"
	"strings"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

var punctuation = regexp.MustCompile(`[^\w\s]`)

// networkAliases maps multi-word network names to the token the other
// exchange uses for the same chain.
var networkAliases = map[string]string{
	"the open network":    "ton",
	"binance smart chain": "bsc",
}

// Canonical lowercases a network name, strips punctuation and applies the
// alias table.
func Canonical(name string) string {
	name = punctuation.ReplaceAllString(strings.TrimSpace(strings.ToLower(name)), "")
	if alias, ok := networkAliases[name]; ok {
		return alias
	}
	return name
}

func tokens(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(Canonical(name)) {
		set[tok] = struct{}{}
	}
	return set
}

// CommonNetwork is a withdrawal route usable from the buy side to the sell side.
type CommonNetwork struct {
	Name    string
	BuyFee  float64
	SellFee float64
	// BuyMinWithdraw is the minimum amount the buy side lets you withdraw.
	BuyMinWithdraw float64
}

func (c CommonNetwork) TotalFee() float64 {
	return c.BuyFee + c.SellFee
}

// SelectCommonNetwork pairs every buy network with every sell network whose
// canonical token sets intersect and returns the pair with the lowest
// combined fee. The first pair wins on equal fees.
func SelectCommonNetwork(buy, sell []domain.NetworkFee) (CommonNetwork, bool) {
	sellTokens := make([]map[string]struct{}, len(sell))
	for i, sn := range sell {
		sellTokens[i] = tokens(sn.Name)
	}

	var best CommonNetwork
	found := false
	for _, bn := range buy {
		bt := tokens(bn.Name)
		for i, sn := range sell {
			shared := intersect(bt, sellTokens[i])
			if len(shared) == 0 {
				continue
			}
			candidate := CommonNetwork{
				Name:           strings.Join(shared, " "),
				BuyFee:         bn.Fee,
				SellFee:        sn.Fee,
				BuyMinWithdraw: bn.MinWithdraw,
			}
			if !found || candidate.TotalFee() < best.TotalFee() {
				best = candidate
				found = true
			}
		}
	}
	return best, found
}

func intersect(a, b map[string]struct{}) []string {
	var out []string
	for tok := range a {
		if _, ok := b[tok]; ok {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}
