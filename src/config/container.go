package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"gitlab.com/open-soft/go-dca-bot/src/client"
	"gitlab.com/open-soft/go-dca-bot/src/controller"
	"gitlab.com/open-soft/go-dca-bot/src/model"
	"gitlab.com/open-soft/go-dca-bot/src/repository"
	"gitlab.com/open-soft/go-dca-bot/src/service"
	"gitlab.com/open-soft/go-dca-bot/src/service/dca"
	"gitlab.com/open-soft/go-dca-bot/src/service/exchange"
	"gitlab.com/open-soft/go-dca-bot/src/utils"
	"gitlab.com/open-soft/go-dca-bot/src/validator"
)

func InitServiceContainer() Container {
	db, err := sql.Open("mysql", os.Getenv("DATABASE_DSN"))

	if err != nil {
		log.Fatal(fmt.Sprintf("MySQL can't connect: %s", err.Error()))
	}

	db.SetMaxIdleConns(64)
	db.SetMaxOpenConns(64)
	db.SetConnMaxLifetime(time.Minute)

	var ctx = context.Background()
	rdb := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_DSN"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	binance := client.Binance{
		DestinationWsDSN: os.Getenv("BINANCE_WS_DSN"),
		Channel:          make(chan []byte),
		SocketWriter:     make(chan []byte),
		RDB:              rdb,
		Ctx:              &ctx,
		WaitMode:         false,
		Connected:        false,
		Lock:             &sync.Mutex{},
	}

	httpClient := client.HttpClient{}

	byBit := client.ByBit{
		HttpClient: &httpClient,
		DSN:        os.Getenv("BYBIT_API_DSN"),
		RDB:        rdb,
		Ctx:        &ctx,
	}

	gatewayRegistry := client.NewGatewayRegistry()
	gatewayRegistry.Register(model.ExchangeBinance, &binance)
	gatewayRegistry.Register(model.ExchangeByBit, &byBit)

	botRepository := repository.BotRepository{
		DB:  db,
		RDB: rdb,
		Ctx: &ctx,
	}

	currentBot := botRepository.GetCurrentBot()
	if currentBot == nil {
		botUuid := os.Getenv("BOT_UUID")
		err := botRepository.Create(model.Bot{
			BotUuid: botUuid,
		})
		if err != nil {
			panic(err)
		}

		currentBot = botRepository.GetCurrentBot()
		if currentBot == nil {
			panic(fmt.Sprintf("Can't initialize bot: %s", botUuid))
		}
	}

	vault, err := service.NewCredentialVault(
		os.Getenv("VAULT_PUBLIC_KEY"),
		os.Getenv("VAULT_PRIVATE_KEY"),
	)
	if err != nil {
		log.Fatal(fmt.Sprintf("Credential vault can't initialize: %s", err.Error()))
	}

	strategyRepository := repository.StrategyRepository{
		DB:         db,
		CurrentBot: currentBot,
	}
	awaitOrderRepository := repository.AwaitOrderRepository{
		DB:         db,
		CurrentBot: currentBot,
	}
	orderRepository := repository.OrderRepository{
		DB:         db,
		CurrentBot: currentBot,
	}

	balanceService := exchange.BalanceService{
		RDB:             rdb,
		Ctx:             &ctx,
		CurrentBot:      currentBot,
		GatewayRegistry: gatewayRegistry,
	}

	callbackManager := service.CallbackManager{
		CallbackDSN: os.Getenv("CALLBACK_DSN"),
	}

	timeService := utils.TimeHelper{}
	formatter := utils.Formatter{}
	purchaseValidator := validator.PurchaseValidator{}

	buyService := dca.BuyService{
		StrategyRepository: &strategyRepository,
		OrderRepository:    &orderRepository,
		GatewayRegistry:    gatewayRegistry,
		Vault:              vault,
		BalanceService:     &balanceService,
		PurchaseValidator:  &purchaseValidator,
		Formatter:          &formatter,
		CallbackManager:    &callbackManager,
		CurrentBot:         currentBot,
	}

	sellService := dca.SellService{
		StrategyRepository:   &strategyRepository,
		AwaitOrderRepository: &awaitOrderRepository,
		GatewayRegistry:      gatewayRegistry,
		CallbackManager:      &callbackManager,
		CurrentBot:           currentBot,
	}

	settlementService := dca.SettlementService{
		StrategyRepository:   &strategyRepository,
		AwaitOrderRepository: &awaitOrderRepository,
		OrderRepository:      &orderRepository,
		GatewayRegistry:      gatewayRegistry,
		Vault:                vault,
		Formatter:            &formatter,
		CallbackManager:      &callbackManager,
		CurrentBot:           currentBot,
		ClaimLease:           repository.DefaultClaimLease,
	}

	priceStreamService := exchange.PriceStreamService{
		Binance:            &binance,
		StrategyRepository: &strategyRepository,
		StreamDSN:          os.Getenv("BINANCE_STREAM_DSN"),
	}

	healthService := service.HealthService{
		BotRepository:        &botRepository,
		AwaitOrderRepository: &awaitOrderRepository,
		DB:                   db,
		RDB:                  rdb,
		Ctx:                  &ctx,
		Binance:              &binance,
		CurrentBot:           currentBot,
	}

	scheduler := service.NewScheduler([]*service.ScheduledJob{
		{
			Name: "buy-tick",
			Spec: cronSpec("BUY_TICK_CRON", "* * * * *"),
			Run: func() {
				buyService.RunBuyTick(timeService.GetNow())
			},
		},
		{
			Name: "sell-check",
			Spec: cronSpec("SELL_CHECK_CRON", "0 9 * * *"),
			Run: func() {
				sellService.RunSellCheck()
			},
		},
		{
			Name: "settlement-sweep",
			Spec: cronSpec("SETTLEMENT_CRON", "0 21 * * *"),
			Run: func() {
				settlementService.RunSettlementSweep(timeService.GetNow())
			},
		},
	})

	return Container{
		Db:                   db,
		CurrentBot:           currentBot,
		Binance:              &binance,
		ByBit:                &byBit,
		GatewayRegistry:      gatewayRegistry,
		Vault:                vault,
		BotRepository:        &botRepository,
		StrategyRepository:   &strategyRepository,
		AwaitOrderRepository: &awaitOrderRepository,
		OrderRepository:      &orderRepository,
		BalanceService:       &balanceService,
		CallbackManager:      &callbackManager,
		TimeService:          &timeService,
		BuyService:           &buyService,
		SellService:          &sellService,
		SettlementService:    &settlementService,
		PriceStreamService:   &priceStreamService,
		HealthService:        &healthService,
		Scheduler:            scheduler,
		BotController: &controller.BotController{
			HealthService: &healthService,
			CurrentBot:    currentBot,
		},
		StrategyController: &controller.StrategyController{
			StrategyRepository: &strategyRepository,
			OrderRepository:    &orderRepository,
			BuyService:         &buyService,
			SellService:        &sellService,
			CurrentBot:         currentBot,
		},
	}
}

func cronSpec(envKey string, fallback string) string {
	spec := os.Getenv(envKey)
	if len(spec) == 0 {
		return fallback
	}

	return spec
}

type Container struct {
	Db                   *sql.DB
	CurrentBot           *model.Bot
	Binance              *client.Binance
	ByBit                *client.ByBit
	GatewayRegistry      *client.GatewayRegistry
	Vault                *service.CredentialVault
	BotRepository        *repository.BotRepository
	StrategyRepository   *repository.StrategyRepository
	AwaitOrderRepository *repository.AwaitOrderRepository
	OrderRepository      *repository.OrderRepository
	BalanceService       *exchange.BalanceService
	CallbackManager      *service.CallbackManager
	TimeService          *utils.TimeHelper
	BuyService           *dca.BuyService
	SellService          *dca.SellService
	SettlementService    *dca.SettlementService
	PriceStreamService   *exchange.PriceStreamService
	HealthService        *service.HealthService
	Scheduler            *service.Scheduler
	BotController        *controller.BotController
	StrategyController   *controller.StrategyController
}

func (c *Container) StartHttpServer() {
	http.HandleFunc("/health/check", c.BotController.GetHealthCheck)
	http.HandleFunc("/strategy/purchase", c.StrategyController.PostPurchaseAction)
	http.HandleFunc("/strategy/sell/check", c.StrategyController.PostSellCheckAction)
	http.HandleFunc("/strategy/close", c.StrategyController.PostCloseAction)
	http.HandleFunc("/strategy/list", c.StrategyController.GetStrategyListAction)
	http.HandleFunc("/strategy/order/list", c.StrategyController.GetOrderListAction)

	go func() {
		_ = http.ListenAndServe(":8080", nil)
	}()
}
