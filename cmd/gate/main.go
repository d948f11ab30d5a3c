package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/thesisvault/internal/buildinfo"
	"github.com/dmitrijs2005/thesisvault/internal/gate"
	"github.com/dmitrijs2005/thesisvault/internal/gate/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := gate.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
