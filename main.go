package main

import (
	"log"

	"github.com/joho/godotenv"

	"shipper/pkg/cli"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cli.Execute()
}
