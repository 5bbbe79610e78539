package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"gitlab.com/open-soft/go-dca-bot/src/model"
	"gitlab.com/open-soft/go-dca-bot/src/repository"
	"gitlab.com/open-soft/go-dca-bot/src/service/dca"
)

// StrategyController exposes the manual trigger endpoints. They run the same
// engine paths as the scheduler, for a single strategy, and propagate typed
// conditions to the caller instead of swallowing them.
type StrategyController struct {
	StrategyRepository repository.StrategyStorageInterface
	OrderRepository    repository.OrderStorageInterface
	BuyService         *dca.BuyService
	SellService        *dca.SellService
	CurrentBot         *model.Bot
}

func (s *StrategyController) PostPurchaseAction(w http.ResponseWriter, req *http.Request) {
	strategy, ok := s.authorize(w, req, "POST")
	if !ok {
		return
	}

	err := s.BuyService.ProcessPurchase(*strategy)
	if err != nil {
		if model.IsPurchaseCondition(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}

		http.Error(w, err.Error(), http.StatusServiceUnavailable)

		return
	}

	fmt.Fprintf(w, "OK")
}

func (s *StrategyController) PostSellCheckAction(w http.ResponseWriter, req *http.Request) {
	strategy, ok := s.authorize(w, req, "POST")
	if !ok {
		return
	}

	err := s.SellService.CheckStrategy(*strategy)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)

		return
	}

	fmt.Fprintf(w, "OK")
}

func (s *StrategyController) PostCloseAction(w http.ResponseWriter, req *http.Request) {
	strategy, ok := s.authorize(w, req, "POST")
	if !ok {
		return
	}

	err := s.SellService.RequestClose(strategy.Id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	fmt.Fprintf(w, "OK")
}

func (s *StrategyController) GetStrategyListAction(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return
	}

	if req.Method != "GET" {
		http.Error(w, "Only GET method is allowed", http.StatusMethodNotAllowed)

		return
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != s.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return
	}

	ownerId, err := strconv.ParseInt(req.URL.Query().Get("ownerId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ownerId", http.StatusBadRequest)

		return
	}

	list := s.StrategyRepository.GetStrategiesByOwner(ownerId)
	encoded, _ := json.Marshal(list)
	fmt.Fprintf(w, string(encoded))
}

func (s *StrategyController) GetOrderListAction(w http.ResponseWriter, req *http.Request) {
	strategy, ok := s.authorize(w, req, "GET")
	if !ok {
		return
	}

	list := s.OrderRepository.GetOrderList(strategy.Id)
	encoded, _ := json.Marshal(list)
	fmt.Fprintf(w, string(encoded))
}

func (s *StrategyController) authorize(w http.ResponseWriter, req *http.Request, method string) (*model.Strategy, bool) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if req.Method == "OPTIONS" {
		fmt.Fprintf(w, "OK")
		return nil, false
	}

	if req.Method != method {
		http.Error(w, fmt.Sprintf("Only %s method is allowed", method), http.StatusMethodNotAllowed)

		return nil, false
	}

	botUuid := req.URL.Query().Get("botUuid")

	if botUuid != s.CurrentBot.BotUuid {
		http.Error(w, "Forbidden", http.StatusForbidden)

		return nil, false
	}

	strategyId, err := strconv.ParseInt(req.URL.Query().Get("strategyId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid strategyId", http.StatusBadRequest)

		return nil, false
	}

	strategy, err := s.StrategyRepository.Find(strategyId)
	if err != nil {
		if errors.Is(err, model.ErrStrategyNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)

			return nil, false
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return nil, false
	}

	return &strategy, true
}
