package main

import (
	"context"
	"os"

	"github.com/kbukum/netclient/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
