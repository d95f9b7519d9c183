package main

import (
	"log"

	_ "time/tzdata"

	corecmd "github.com/m3rciful/schedulebot/core/cmd"

	"github.com/m3rciful/schedulebot/bot"
)

func main() {
	if err := corecmd.Run(bot.Options()); err != nil {
		log.Fatal(err)
	}
}
