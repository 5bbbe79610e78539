package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"gitlab.com/open-soft/go-dca-bot/src/client"
	"gitlab.com/open-soft/go-dca-bot/src/model"
)

type BalanceServiceInterface interface {
	GetAssetBalance(strategy model.Strategy, credentials model.ApiCredentials, asset string, cache bool) (float64, error)
	InvalidateBalanceCache(strategy model.Strategy, asset string)
}

// BalanceService reads free balances through the venue gateway of the given
// strategy. Results are cached per strategy, each strategy trades on its own
// exchange account.
type BalanceService struct {
	RDB             *redis.Client
	Ctx             *context.Context
	CurrentBot      *model.Bot
	GatewayRegistry *client.GatewayRegistry
}

func (b *BalanceService) InvalidateBalanceCache(strategy model.Strategy, asset string) {
	b.RDB.Del(*b.Ctx, b.getBalanceCacheKey(strategy, asset))
}

func (b *BalanceService) GetAssetBalance(strategy model.Strategy, credentials model.ApiCredentials, asset string, cache bool) (float64, error) {
	cached := b.RDB.Get(*b.Ctx, b.getBalanceCacheKey(strategy, asset)).Val()

	if len(cached) > 0 && cache {
		balanceCached, err := strconv.ParseFloat(cached, 64)

		if err == nil {
			return balanceCached, nil
		}
	}

	gateway, err := b.GatewayRegistry.Get(strategy.Exchange)
	if err != nil {
		return 0.00, err
	}

	balances, err := gateway.GetBalances(credentials)
	if err != nil {
		return 0.00, err
	}

	balance, ok := balances[asset]
	free := 0.00
	if ok {
		free = balance.Free
	}

	b.RDB.Set(
		*b.Ctx,
		b.getBalanceCacheKey(strategy, asset),
		strconv.FormatFloat(free, 'f', -1, 64),
		time.Minute,
	)

	return free, nil
}

func (b *BalanceService) getBalanceCacheKey(strategy model.Strategy, asset string) string {
	return fmt.Sprintf("balance-%s-strategy-%d-bot-%d", asset, strategy.Id, b.CurrentBot.Id)
}
