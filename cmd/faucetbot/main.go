// faucetbot generates wallets, claims testnet faucets for them through
// rotating proxies and sweeps the collected funds.
//
// @title        faucetbot API
// @version      1.0
// @description  Batch faucet claims, wallet generation and transfers.
// @BasePath     /
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
