package main

import (
	"context"
	"os"

	"github.com/marinedrive/phyto-backend/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], cli.Dependencies{Version: version}, os.Stdout, os.Stderr))
}
