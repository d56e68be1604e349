package main

import (
	"flag"
	"fmt"
	"time"

	"pt1/backend/global"
	"pt1/backend/initialize"
	"pt1/backend/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	app, err := initialize.Build(*configPath)
	if err != nil {
		global.Logger.Fatal().Err(err).Msg("build failed")
	}

	token, expiry := app.Tokens.Active()
	fmt.Println("==============================================")
	fmt.Println(" PT1 control plane")
	fmt.Printf(" API token:  %s\n", token)
	fmt.Printf(" Expires at: %s\n", expiry.UTC().Format(time.RFC3339))
	fmt.Printf(" Rotation:   %s\n", app.Tokens.DefaultRotation())
	fmt.Println("==============================================")

	host := app.Cfg.HTTP.Host
	port := app.Cfg.HTTP.Port
	if err := server.StartHTTPServer(host, port, app.Router); err != nil {
		global.Logger.Fatal().Err(err).Msg("http server failed")
	}
	global.Logger.Info().Str("host", host).Int("port", port).Msg("listening")

	select {}
}
