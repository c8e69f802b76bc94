package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
