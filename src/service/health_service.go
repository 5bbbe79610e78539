package service

import (
	"context"
	"database/sql"
	"runtime"

	"github.com/rafacas/sysstats"
	"github.com/redis/go-redis/v9"

	"gitlab.com/open-soft/go-dca-bot/src/client"
	"gitlab.com/open-soft/go-dca-bot/src/model"
	"gitlab.com/open-soft/go-dca-bot/src/repository"
)

type HealthService struct {
	BotRepository        *repository.BotRepository
	AwaitOrderRepository *repository.AwaitOrderRepository
	DB                   *sql.DB
	RDB                  *redis.Client
	Ctx                  *context.Context
	Binance              *client.Binance
	CurrentBot           *model.Bot
}

func (h *HealthService) HealthCheck() model.BotHealth {
	memStats, _ := sysstats.GetMemStats()
	loadAvg, _ := sysstats.GetLoadAvg()

	binanceStatus := model.BinanceStatusOk
	if !h.Binance.Connected {
		binanceStatus = model.BinanceStatusDisconnected
	}
	if h.Binance.WaitMode {
		binanceStatus = model.BinanceStatusBan
	}

	dbStatus := model.DbStatusOk
	if h.DB.Ping() != nil {
		dbStatus = model.DbStatusFail
	}
	redisStatus := model.RedisStatusOk
	if h.RDB.Ping(*h.Ctx).Err() != nil {
		redisStatus = model.RedisStatusFail
	}

	bot := h.BotRepository.GetCurrentBotCached(h.CurrentBot.Id)

	return model.BotHealth{
		Bot:            bot,
		DbStatus:       dbStatus,
		BinanceStatus:  binanceStatus,
		RedisStatus:    redisStatus,
		PendingIntents: h.AwaitOrderRepository.CountOpen(),
		Cores:          runtime.NumCPU(),
		Memory:         memStats,
		LoadAvg:        loadAvg,
	}
}
