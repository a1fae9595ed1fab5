package main

import (
	"context"
	"log"

	"github.com/dkurniawan/bukukas/internal/client/cli"
	"github.com/dkurniawan/bukukas/internal/client/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	cfg := config.LoadConfig()

	app := cli.NewApp(cfg)
	defer app.Close()

	return cli.NewRootCmd(app).ExecuteContext(context.Background())
}
