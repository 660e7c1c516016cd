package main

import (
	"os"

	"github.com/bandsync/bandsync/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
