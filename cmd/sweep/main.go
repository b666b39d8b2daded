// cmd/sweep - Run one progression sweep and exit.
//
// Useful after editing ranks or achievements by hand:
//
//	go run ./cmd/sweep
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/MantasDr/frontas/database"
	"github.com/MantasDr/frontas/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	database.InitDB()
	defer database.CloseDB()

	services.InitProgressionService()
	services.GetProgressionService().RunSweepForAllUsers()
}
