package repository

import (
	"database/sql"
	"log"
	"time"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

const AwaitOrderDateTimeFormat = "2006-01-02 15:04:05"

// DefaultClaimLease bounds how long a claimed intent stays owned by a dead
// sweep before another sweep may claim over it.
const DefaultClaimLease = time.Minute * 30

type AwaitOrderStorageInterface interface {
	Create(awaitOrder model.AwaitOrder) (*int64, error)
	Find(id int64) (model.AwaitOrder, error)
	HasOpenIntent(strategyId int64) bool
	GetPending(now time.Time, lease time.Duration) []model.AwaitOrder
	Claim(awaitOrder model.AwaitOrder, now time.Time, lease time.Duration) error
	Complete(awaitOrder model.AwaitOrder) error
}

type AwaitOrderRepository struct {
	DB         *sql.DB
	CurrentBot *model.Bot
}

func (repo *AwaitOrderRepository) Create(awaitOrder model.AwaitOrder) (*int64, error) {
	res, err := repo.DB.Exec(`
		INSERT INTO await_orders SET
			strategy_id = ?,
			reason = ?,
			trigger_price = ?,
			status = ?,
			bot_id = ?,
			created_at = ?`,
		awaitOrder.StrategyId,
		awaitOrder.Reason,
		awaitOrder.TriggerPrice,
		model.AwaitStatusWaiting,
		repo.CurrentBot.Id,
		time.Now().Format(AwaitOrderDateTimeFormat),
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

func (repo *AwaitOrderRepository) Find(id int64) (model.AwaitOrder, error) {
	var awaitOrder model.AwaitOrder

	err := repo.DB.QueryRow(`
		SELECT
			ao.id as Id,
			ao.strategy_id as StrategyId,
			ao.reason as Reason,
			ao.trigger_price as TriggerPrice,
			ao.status as Status,
			ao.created_at as CreatedAt,
			ao.claimed_at as ClaimedAt
		FROM await_orders ao
		WHERE ao.id = ? AND ao.bot_id = ?`,
		id,
		repo.CurrentBot.Id,
	).Scan(
		&awaitOrder.Id,
		&awaitOrder.StrategyId,
		&awaitOrder.Reason,
		&awaitOrder.TriggerPrice,
		&awaitOrder.Status,
		&awaitOrder.CreatedAt,
		&awaitOrder.ClaimedAt,
	)

	if err != nil {
		return awaitOrder, err
	}

	return awaitOrder, nil
}

// HasOpenIntent reports whether the strategy already has an unsettled sell
// intent. The decision engine stops evaluating such strategies, so at most one
// open intent exists per strategy.
func (repo *AwaitOrderRepository) HasOpenIntent(strategyId int64) bool {
	var count int64

	err := repo.DB.QueryRow(`
		SELECT COUNT(ao.id) as AwaitCount
		FROM await_orders ao
		WHERE ao.strategy_id = ? AND ao.bot_id = ? AND ao.status <> ?`,
		strategyId,
		repo.CurrentBot.Id,
		model.AwaitStatusCompleted,
	).Scan(&count)

	if err != nil {
		log.Println(err)
		return true
	}

	return count > 0
}

// CountOpen returns how many intents are not yet settled, for health
// reporting.
func (repo *AwaitOrderRepository) CountOpen() int64 {
	var count int64

	err := repo.DB.QueryRow(`
		SELECT COUNT(ao.id) as AwaitCount
		FROM await_orders ao
		WHERE ao.bot_id = ? AND ao.status <> ?`,
		repo.CurrentBot.Id,
		model.AwaitStatusCompleted,
	).Scan(&count)

	if err != nil {
		log.Println(err)
		return 0
	}

	return count
}

// GetPending returns the intents a sweep should try to claim: every waiting
// intent plus processing intents whose claim lease has expired.
func (repo *AwaitOrderRepository) GetPending(now time.Time, lease time.Duration) []model.AwaitOrder {
	list := make([]model.AwaitOrder, 0)

	rows, err := repo.DB.Query(`
		SELECT
			ao.id as Id,
			ao.strategy_id as StrategyId,
			ao.reason as Reason,
			ao.trigger_price as TriggerPrice,
			ao.status as Status,
			ao.created_at as CreatedAt,
			ao.claimed_at as ClaimedAt
		FROM await_orders ao
		WHERE ao.bot_id = ? AND (
			ao.status = ? OR (ao.status = ? AND ao.claimed_at < ?)
		)
		ORDER BY ao.id ASC`,
		repo.CurrentBot.Id,
		model.AwaitStatusWaiting,
		model.AwaitStatusProcessing,
		now.Add(-lease).Format(AwaitOrderDateTimeFormat),
	)

	if err != nil {
		log.Println(err)
		return list
	}

	defer rows.Close()

	for rows.Next() {
		var awaitOrder model.AwaitOrder
		err := rows.Scan(
			&awaitOrder.Id,
			&awaitOrder.StrategyId,
			&awaitOrder.Reason,
			&awaitOrder.TriggerPrice,
			&awaitOrder.Status,
			&awaitOrder.CreatedAt,
			&awaitOrder.ClaimedAt,
		)

		if err != nil {
			log.Println(err)
			continue
		}

		list = append(list, awaitOrder)
	}

	return list
}

// Claim moves an intent from waiting to processing with a single conditional
// update. Exactly one concurrent sweep wins, the others get
// model.ErrAlreadyClaimed. A processing intent can only be claimed over once
// its lease expired.
func (repo *AwaitOrderRepository) Claim(awaitOrder model.AwaitOrder, now time.Time, lease time.Duration) error {
	res, err := repo.DB.Exec(`
		UPDATE await_orders ao SET
			ao.status = ?,
			ao.claimed_at = ?
		WHERE ao.id = ? AND ao.bot_id = ? AND (
			ao.status = ? OR (ao.status = ? AND ao.claimed_at < ?)
		)`,
		model.AwaitStatusProcessing,
		now.Format(AwaitOrderDateTimeFormat),
		awaitOrder.Id,
		repo.CurrentBot.Id,
		model.AwaitStatusWaiting,
		model.AwaitStatusProcessing,
		now.Add(-lease).Format(AwaitOrderDateTimeFormat),
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
		return model.ErrAlreadyClaimed
	}

	return nil
}

func (repo *AwaitOrderRepository) Complete(awaitOrder model.AwaitOrder) error {
	res, err := repo.DB.Exec(`
		UPDATE await_orders ao SET ao.status = ?
		WHERE ao.id = ? AND ao.bot_id = ? AND ao.status = ?`,
		model.AwaitStatusCompleted,
		awaitOrder.Id,
		repo.CurrentBot.Id,
		model.AwaitStatusProcessing,
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
		return model.ErrAlreadyClaimed
	}

	return nil
}
