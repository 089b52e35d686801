package main

import (
	"os"

	"github.com/saylorsolutions/dccctl/app"
	"github.com/saylorsolutions/dccctl/gateway"
)

func main() {
	os.Exit(app.Main(gateway.New(), os.Args[1:]))
}
