package repository

import (
	"database/sql"
	"log"
	"time"

	"gitlab.com/open-soft/go-dca-bot/src/model"
)

type OrderStorageInterface interface {
	Create(order model.Order) (*int64, error)
	Find(id int64) (model.Order, error)
	GetOrderList(strategyId int64) []model.Order
}

// OrderRepository persists the execution ledger. Records are inserted once
// and never updated or deleted.
type OrderRepository struct {
	DB         *sql.DB
	CurrentBot *model.Bot
}

func (repo *OrderRepository) Create(order model.Order) (*int64, error) {
	res, err := repo.DB.Exec(`
		INSERT INTO orders SET
			strategy_id = ?,
			exchange = ?,
			symbol = ?,
			operation = ?,
			quantity = ?,
			price = ?,
			cost = ?,
			base_total = ?,
			quote_total = ?,
			external_id = ?,
			bot_id = ?,
			created_at = ?`,
		order.StrategyId,
		order.Exchange,
		order.Symbol,
		order.Operation,
		order.Quantity,
		order.Price,
		order.Cost,
		order.BaseTotal,
		order.QuoteTotal,
		order.ExternalId,
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

func (repo *OrderRepository) Find(id int64) (model.Order, error) {
	var order model.Order

	err := repo.DB.QueryRow(`
		SELECT
			o.id as Id,
			o.strategy_id as StrategyId,
			o.exchange as Exchange,
			o.symbol as Symbol,
			o.operation as Operation,
			o.quantity as Quantity,
			o.price as Price,
			o.cost as Cost,
			o.base_total as BaseTotal,
			o.quote_total as QuoteTotal,
			o.external_id as ExternalId,
			o.created_at as CreatedAt
		FROM orders o
		WHERE o.id = ? AND o.bot_id = ?`,
		id,
		repo.CurrentBot.Id,
	).Scan(
		&order.Id,
		&order.StrategyId,
		&order.Exchange,
		&order.Symbol,
		&order.Operation,
		&order.Quantity,
		&order.Price,
		&order.Cost,
		&order.BaseTotal,
		&order.QuoteTotal,
		&order.ExternalId,
		&order.CreatedAt,
	)

	if err != nil {
		return order, err
	}

	return order, nil
}

func (repo *OrderRepository) GetOrderList(strategyId int64) []model.Order {
	list := make([]model.Order, 0)

	rows, err := repo.DB.Query(`
		SELECT
			o.id as Id,
			o.strategy_id as StrategyId,
			o.exchange as Exchange,
			o.symbol as Symbol,
			o.operation as Operation,
			o.quantity as Quantity,
			o.price as Price,
			o.cost as Cost,
			o.base_total as BaseTotal,
			o.quote_total as QuoteTotal,
			o.external_id as ExternalId,
			o.created_at as CreatedAt
		FROM orders o
		WHERE o.strategy_id = ? AND o.bot_id = ?
		ORDER BY o.id ASC`,
		strategyId,
		repo.CurrentBot.Id,
	)

	if err != nil {
		log.Println(err)
		return list
	}

	defer rows.Close()

	for rows.Next() {
		var order model.Order
		err := rows.Scan(
			&order.Id,
			&order.StrategyId,
			&order.Exchange,
			&order.Symbol,
			&order.Operation,
			&order.Quantity,
			&order.Price,
			&order.Cost,
			&order.BaseTotal,
			&order.QuoteTotal,
			&order.ExternalId,
			&order.CreatedAt,
		)

		if err != nil {
			log.Println(err)
			continue
		}

		list = append(list, order)
	}

	return list
}
