package model

import (
	"github.com/rafacas/sysstats"
)

const DbStatusOk = "ok"
const DbStatusFail = "fail"
const RedisStatusOk = "ok"
const RedisStatusFail = "fail"
const BinanceStatusOk = "ok"
const BinanceStatusBan = "ban"
const BinanceStatusDisconnected = "disconnected"

type BotHealth struct {
	Bot            Bot               `json:"bot"`
	DbStatus       string            `json:"dbStatus"`
	RedisStatus    string            `json:"redisStatus"`
	BinanceStatus  string            `json:"binanceStatus"`
	PendingIntents int64             `json:"pendingIntents"`
	Cores          int               `json:"cores"`
	Memory         sysstats.MemStats `json:"memory"`
	LoadAvg        sysstats.LoadAvg  `json:"loadAvg"`
}
