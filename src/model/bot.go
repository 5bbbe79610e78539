package model

// Bot is the process identity of one fleet instance, registered by uuid.
type Bot struct {
	Id      int64  `json:"id"`
	BotUuid string `json:"uuid"`
}

type ErrorNotification struct {
	BotId        int64  `json:"bot"`
	Stop         bool   `json:"stop"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

type OrderNotification struct {
	BotId     int64   `json:"bot"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"amount"`
	Symbol    string  `json:"symbol"`
	Operation string  `json:"operation"`
	DateTime  string  `json:"dateTime"`
	Details   string  `json:"details"`
}
