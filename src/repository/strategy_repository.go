package repository

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

type StrategyStorageInterface interface {
	Create(strategy model.Strategy) (*int64, error)
	Find(id int64) (model.Strategy, error)
	Update(strategy model.Strategy) error
	GetStrategiesByMinute(minute int64) []model.Strategy
	GetProtectedStrategies() []model.Strategy
	GetStrategiesByOwner(ownerId int64) []model.Strategy
}

type StrategyRepository struct {
	DB         *sql.DB
	CurrentBot *model.Bot
}

func (repo *StrategyRepository) Create(strategy model.Strategy) (*int64, error) {
	res, err := repo.DB.Exec(`
		INSERT INTO strategies SET
			owner_id = ?,
			exchange = ?,
			quote_symbol = ?,
			base_symbol = ?,
			encrypted_credentials = ?,
			period_unit = ?,
			period_values = ?,
			purchase_hour = ?,
			purchase_minute = ?,
			base_limit = ?,
			invest_mode = ?,
			growth_rate = ?,
			buy_count = ?,
			base_total = ?,
			quote_total = ?,
			round_buy_count = ?,
			round_base_total = ?,
			round_quote_total = ?,
			take_profit_percent = ?,
			drawdown_percent = ?,
			high_water_price = ?,
			auto_restart = ?,
			status = ?,
			stop_reason = ?,
			version = ?,
			bot_id = ?,
			created_at = ?`,
		strategy.OwnerId,
		strategy.Exchange,
		strategy.QuoteSymbol,
		strategy.BaseSymbol,
		strategy.EncryptedCredentials,
		strategy.PeriodUnit,
		strategy.PeriodValues,
		strategy.PurchaseHour,
		strategy.PurchaseMinute,
		strategy.BaseLimit,
		strategy.InvestMode,
		strategy.GrowthRate,
		strategy.BuyCount,
		strategy.BaseTotal,
		strategy.QuoteTotal,
		strategy.RoundBuyCount,
		strategy.RoundBaseTotal,
		strategy.RoundQuoteTotal,
		strategy.TakeProfitPercent,
		strategy.DrawdownPercent,
		strategy.HighWaterPrice,
		strategy.AutoRestart,
		strategy.Status,
		strategy.StopReason,
		strategy.Version,
		repo.CurrentBot.Id,
		time.Now().Format("2006-01-02 15:04:05"),
	)

	if err != nil {
		log.Println(err)
		return nil, err
	}

	lastId, err := res.LastInsertId()
	if err != nil {
		log.Println(err)
		return nil, err
	}

	return &lastId, nil
}

func (repo *StrategyRepository) Find(id int64) (model.Strategy, error) {
	var strategy model.Strategy

	err := repo.DB.QueryRow(`
		SELECT `+strategyColumns+`
		FROM strategies s
		WHERE s.id = ? AND s.bot_id = ?`,
		id,
		repo.CurrentBot.Id,
	).Scan(
		&strategy.Id,
		&strategy.OwnerId,
		&strategy.Exchange,
		&strategy.QuoteSymbol,
		&strategy.BaseSymbol,
		&strategy.EncryptedCredentials,
		&strategy.PeriodUnit,
		&strategy.PeriodValues,
		&strategy.PurchaseHour,
		&strategy.PurchaseMinute,
		&strategy.BaseLimit,
		&strategy.InvestMode,
		&strategy.GrowthRate,
		&strategy.BuyCount,
		&strategy.BaseTotal,
		&strategy.QuoteTotal,
		&strategy.RoundBuyCount,
		&strategy.RoundBaseTotal,
		&strategy.RoundQuoteTotal,
		&strategy.TakeProfitPercent,
		&strategy.DrawdownPercent,
		&strategy.HighWaterPrice,
		&strategy.AutoRestart,
		&strategy.Status,
		&strategy.StopReason,
		&strategy.Version,
		&strategy.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return strategy, model.ErrStrategyNotFound
		}

		return strategy, err
	}

	return strategy, nil
}

// Update is guarded by the version column. A concurrent writer bumps the
// version first, the stale writer gets model.ErrStaleStrategy and has to
// re-read.
func (repo *StrategyRepository) Update(strategy model.Strategy) error {
	res, err := repo.DB.Exec(`
		UPDATE strategies s SET
			s.encrypted_credentials = ?,
			s.period_unit = ?,
			s.period_values = ?,
			s.purchase_hour = ?,
			s.purchase_minute = ?,
			s.base_limit = ?,
			s.invest_mode = ?,
			s.growth_rate = ?,
			s.buy_count = ?,
			s.base_total = ?,
			s.quote_total = ?,
			s.round_buy_count = ?,
			s.round_base_total = ?,
			s.round_quote_total = ?,
			s.take_profit_percent = ?,
			s.drawdown_percent = ?,
			s.high_water_price = ?,
			s.auto_restart = ?,
			s.status = ?,
			s.stop_reason = ?,
			s.version = s.version + 1
		WHERE s.id = ? AND s.version = ? AND s.bot_id = ?`,
		strategy.EncryptedCredentials,
		strategy.PeriodUnit,
		strategy.PeriodValues,
		strategy.PurchaseHour,
		strategy.PurchaseMinute,
		strategy.BaseLimit,
		strategy.InvestMode,
		strategy.GrowthRate,
		strategy.BuyCount,
		strategy.BaseTotal,
		strategy.QuoteTotal,
		strategy.RoundBuyCount,
		strategy.RoundBaseTotal,
		strategy.RoundQuoteTotal,
		strategy.TakeProfitPercent,
		strategy.DrawdownPercent,
		strategy.HighWaterPrice,
		strategy.AutoRestart,
		strategy.Status,
		strategy.StopReason,
		strategy.Id,
		strategy.Version,
		repo.CurrentBot.Id,
	)

	if err != nil {
		log.Println(err)
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		log.Println(err)
		return err
	}

	if rowsAffected == 0 {
		return model.ErrStaleStrategy
	}

	return nil
}

// GetStrategiesByMinute loads the active strategies whose purchase minute
// matches the current scheduler tick. Cadence filtering beyond the minute is
// done in memory.
func (repo *StrategyRepository) GetStrategiesByMinute(minute int64) []model.Strategy {
	rows, err := repo.DB.Query(`
		SELECT `+strategyColumns+`
		FROM strategies s
		WHERE s.status = ? AND s.purchase_minute = ? AND s.bot_id = ?`,
		model.StrategyStatusActive,
		minute,
		repo.CurrentBot.Id,
	)

	if err != nil {
		log.Println(err)
		return make([]model.Strategy, 0)
	}

	defer rows.Close()

	return repo.scanList(rows)
}

// GetProtectedStrategies loads the active strategies with a take profit
// threshold configured, the only ones the sell check has to price.
func (repo *StrategyRepository) GetProtectedStrategies() []model.Strategy {
	rows, err := repo.DB.Query(`
		SELECT `+strategyColumns+`
		FROM strategies s
		WHERE s.status = ? AND s.bot_id = ?
			AND s.take_profit_percent IS NOT NULL`,
		model.StrategyStatusActive,
		repo.CurrentBot.Id,
	)

	if err != nil {
		log.Println(err)
		return make([]model.Strategy, 0)
	}

	defer rows.Close()

	return repo.scanList(rows)
}

func (repo *StrategyRepository) GetStrategiesByOwner(ownerId int64) []model.Strategy {
	rows, err := repo.DB.Query(`
		SELECT `+strategyColumns+`
		FROM strategies s
		WHERE s.owner_id = ? AND s.bot_id = ?`,
		ownerId,
		repo.CurrentBot.Id,
	)

	if err != nil {
		log.Println(err)
		return make([]model.Strategy, 0)
	}

	defer rows.Close()

	return repo.scanList(rows)
}

const strategyColumns = `
			s.id as Id,
			s.owner_id as OwnerId,
			s.exchange as Exchange,
			s.quote_symbol as QuoteSymbol,
			s.base_symbol as BaseSymbol,
			s.encrypted_credentials as EncryptedCredentials,
			s.period_unit as PeriodUnit,
			s.period_values as PeriodValues,
			s.purchase_hour as PurchaseHour,
			s.purchase_minute as PurchaseMinute,
			s.base_limit as BaseLimit,
			s.invest_mode as InvestMode,
			s.growth_rate as GrowthRate,
			s.buy_count as BuyCount,
			s.base_total as BaseTotal,
			s.quote_total as QuoteTotal,
			s.round_buy_count as RoundBuyCount,
			s.round_base_total as RoundBaseTotal,
			s.round_quote_total as RoundQuoteTotal,
			s.take_profit_percent as TakeProfitPercent,
			s.drawdown_percent as DrawdownPercent,
			s.high_water_price as HighWaterPrice,
			s.auto_restart as AutoRestart,
			s.status as Status,
			s.stop_reason as StopReason,
			s.version as Version,
			s.created_at as CreatedAt`

func (repo *StrategyRepository) scanList(rows *sql.Rows) []model.Strategy {
	list := make([]model.Strategy, 0)

	for rows.Next() {
		var strategy model.Strategy
		err := rows.Scan(
			&strategy.Id,
			&strategy.OwnerId,
			&strategy.Exchange,
			&strategy.QuoteSymbol,
			&strategy.BaseSymbol,
			&strategy.EncryptedCredentials,
			&strategy.PeriodUnit,
			&strategy.PeriodValues,
			&strategy.PurchaseHour,
			&strategy.PurchaseMinute,
			&strategy.BaseLimit,
			&strategy.InvestMode,
			&strategy.GrowthRate,
			&strategy.BuyCount,
			&strategy.BaseTotal,
			&strategy.QuoteTotal,
			&strategy.RoundBuyCount,
			&strategy.RoundBaseTotal,
			&strategy.RoundQuoteTotal,
			&strategy.TakeProfitPercent,
			&strategy.DrawdownPercent,
			&strategy.HighWaterPrice,
			&strategy.AutoRestart,
			&strategy.Status,
			&strategy.StopReason,
			&strategy.Version,
			&strategy.CreatedAt,
		)

		if err != nil {
			log.Println(err)
			continue
		}

		list = append(list, strategy)
	}

	return list
}
