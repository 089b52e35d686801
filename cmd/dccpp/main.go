package main

import (
	"os"

	"github.com/saylorsolutions/dccctl/app"
	"github.com/saylorsolutions/dccctl/dccsh"
)

func main() {
	os.Exit(app.Main(dccsh.New(), os.Args[1:]))
}
