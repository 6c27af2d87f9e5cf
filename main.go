package main

import (
	"github.com/sentrygate/securevault/chain"
	"github.com/sentrygate/securevault/config"
	"github.com/sentrygate/securevault/ipfs"
	"github.com/sentrygate/securevault/models"
	"github.com/sentrygate/securevault/routes"
	"github.com/sentrygate/securevault/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.FileMetadata{})

	// Both clients fail fast on missing configuration: the service cannot
	// gate uploads without the oracle, nor accept them without the pinner.
	oracle, err := chain.NewAccessOracle(cfg.ChainRPCURL, cfg.VaultContractAddress, cfg.ChainAccessMethod)
	if err != nil {
		utils.Sugar.Fatalf("access oracle init failed: %v", err)
	}
	pinner, err := ipfs.NewClient(cfg.PinataEndpoint, cfg.PinataGateway, cfg.PinataJWT)
	if err != nil {
		utils.Sugar.Fatalf("pinning client init failed: %v", err)
	}

	r := routes.SetupRouter(db, oracle, pinner)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
