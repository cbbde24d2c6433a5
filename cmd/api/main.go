package main

import (
	"log"
	"os"
	"portfoliobacktest/cmd"
)

func main() {
	configPath := os.Getenv("PORTFOLIO_CONFIG")
	if configPath == "" {
		configPath = cmd.DefaultConfigPath
	}

	deps, err := cmd.InitializeDependencies(configPath)
	if err != nil {
		log.Fatal(err)
	}
	defer cmd.CloseDependencies(deps)

	deps.ApiHandler.Logger.Infow("starting api", "commitHash", os.Getenv("commit_hash"), "port", deps.Config.Api.Port)
	err = deps.ApiHandler.StartApi(deps.Config.Api.Port)
	if err != nil {
		log.Fatal(err)
	}
}
