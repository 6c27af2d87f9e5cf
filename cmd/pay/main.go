// Command pay drives the client-side subscription payment: approve the vault
// contract for the plan price, then call paySubscription, strictly in that
// order. After the flow finishes it re-reads the entitlement so the result
// reflects on-chain state, not the payment's own claim.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/sentrygate/securevault/chain"
	"github.com/sentrygate/securevault/config"
)

func main() {
	var (
		planID = flag.Uint64("plan", 1, "subscription plan id")
		amount = flag.Int64("amount", 1000, "plan price in whole tokens (18 decimals)")
		keyHex = flag.String("key", os.Getenv("PAYER_PRIVATE_KEY"), "hex-encoded private key (or PAYER_PRIVATE_KEY)")
	)
	flag.Parse()

	cfg := config.Load()
	if *keyHex == "" {
		fatal("a signing key is required: pass -key or set PAYER_PRIVATE_KEY")
	}
	if cfg.ChainRPCURL == "" {
		fatal("CHAIN_RPC_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := ethclient.DialContext(ctx, cfg.ChainRPCURL)
	if err != nil {
		fatal("dial rpc endpoint: %v", err)
	}
	defer client.Close()

	price := new(big.Int).Mul(big.NewInt(*amount), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	payer, err := chain.NewPayer(client, *keyHex, cfg.ChainID, cfg.TokenContractAddress, cfg.VaultContractAddress, price)
	if err != nil {
		fatal("build payer: %v", err)
	}

	fmt.Printf("paying plan %d from %s (%s tokens)\n", *planID, payer.From(), big.NewInt(*amount))
	if err := payer.Pay(ctx, *planID); err != nil {
		fatal("payment failed: %v", err)
	}
	fmt.Println("payment confirmed on-chain")

	oracle, err := chain.NewAccessOracleWithCaller(client, cfg.VaultContractAddress, cfg.ChainAccessMethod)
	if err != nil {
		fatal("build access oracle: %v", err)
	}
	status := oracle.CheckAccess(ctx, payer.From().Hex())
	if status.Err != nil {
		fatal("access re-check failed: %v", status.Err)
	}
	fmt.Printf("upload entitlement: %v (expiry %v, credits %v)\n", status.CanUpload, status.Expiry, status.Credits)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
