package main

import (
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"gitlab.com/open-soft/go-dca-bot/src/config"
)

func main() {
	pwd, _ := os.Getwd()
	if _, err := os.Stat(fmt.Sprintf("%s/.env", pwd)); err == nil {
		log.Println(".env is found, loading variables...")
		err = godotenv.Load()
		if err != nil {
			log.Println(err)
		}
	}

	container := config.InitServiceContainer()
	defer container.Db.Close()

	log.Printf("Bot [%s] is starting...", container.CurrentBot.BotUuid)

	container.Binance.Connect()

	go container.PriceStreamService.Start()

	err := container.Scheduler.Start()
	if err != nil {
		log.Fatal(fmt.Sprintf("Scheduler can't start: %s", err.Error()))
	}

	container.StartHttpServer()

	select {}
}
