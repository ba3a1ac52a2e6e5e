package main

import (
	"os"

	"github.com/arxrev/arxrev/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
