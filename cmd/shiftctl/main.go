package main

import (
	"os"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
