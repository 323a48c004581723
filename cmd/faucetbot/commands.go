package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/api"
	"github.com/AlexZinkM/faucetbot/internal/batch"
	"github.com/AlexZinkM/faucetbot/internal/crypto"
	"github.com/AlexZinkM/faucetbot/internal/model"
	"github.com/AlexZinkM/faucetbot/internal/wallet"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type appKey struct{}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}

func newRootCmd() *cobra.Command {
	var (
		activeProxy string
		current     *app
	)

	root := &cobra.Command{
		Use:          "faucetbot",
		Short:        "Generate wallets, claim faucets through proxies and sweep funds",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), activeProxy, cmd.Name() == "serve")
			if err != nil {
				return err
			}
			current = a
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
	}
	// runs after RunE whether or not it failed
	cobra.OnFinalize(func() {
		if current != nil {
			current.Close()
		}
	})
	root.PersistentFlags().StringVar(&activeProxy, "proxy", "", "pin one proxy for every request (host:port or scheme://host:port)")

	root.AddCommand(
		newGenerateCmd(),
		newClaimCmd(),
		newSendCmd(),
		newAccountsCmd(),
		newProxiesCmd(),
		newQRCmd(),
		newExportCmd(),
		newImportCmd(),
		newServeCmd(),
	)
	return root
}

// selectorFor uses index when given and falls back to the interactive list.
func (a *app) selectorFor(index int) batch.Selector {
	if index >= 0 {
		return batch.StaticSelector{Index: index}
	}
	return a.prompter
}

func newGenerateCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create wallets and claim the faucet for each of them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			return a.runBatch(func() (*batch.Batch, error) {
				return a.orch.GenerateAndClaim(cmd.Context(), count)
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of wallets to create")
	return cmd
}

func newClaimCmd() *cobra.Command {
	var (
		all   bool
		index int
	)
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim the faucet for stored wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			return a.runBatch(func() (*batch.Batch, error) {
				if all {
					return a.orch.ClaimAll(cmd.Context())
				}
				return a.orch.ClaimOne(cmd.Context(), a.selectorFor(index))
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "claim for every stored wallet")
	cmd.Flags().IntVar(&index, "index", -1, "wallet index, prompts when omitted")
	return cmd
}

func newSendCmd() *cobra.Command {
	var (
		to, amount string
		all, yes   bool
		index      int
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send tokens from stored wallets to one recipient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			var err error
			if to == "" {
				if to, err = a.prompter.Ask("Recipient address"); err != nil {
					return err
				}
			}
			if amount == "" {
				if amount, err = a.prompter.Ask("Amount per wallet"); err != nil {
					return err
				}
			}
			return a.runBatch(func() (*batch.Batch, error) {
				if all {
					var confirmer batch.Confirmer = a.prompter
					if yes {
						confirmer = batch.StaticConfirmer{Answer: true}
					}
					return a.orch.SendAllSufficient(cmd.Context(), to, amount, confirmer)
				}
				return a.orch.SendOne(cmd.Context(), a.selectorFor(index), to, amount)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address, prompts when omitted")
	cmd.Flags().StringVar(&amount, "amount", "", "amount per wallet in whole tokens, prompts when omitted")
	cmd.Flags().BoolVar(&all, "all", false, "send from every wallet holding at least amount")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation for --all")
	cmd.Flags().IntVar(&index, "index", -1, "wallet index, prompts when omitted")
	return cmd
}

func newAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List stored wallets with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			list, err := a.orch.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			sum := a.orch.RefreshSummary(cmd.Context())
			a.renderer.RenderAccounts(list, sum.Symbol)
			a.renderer.RenderSummary(sum)
			return nil
		},
	}
}

func newProxiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proxies",
		Short: "List the proxy pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printProxies(cmd.OutOrStdout(), appFrom(cmd).pool)
			return nil
		},
	}
}

func newQRCmd() *cobra.Command {
	var (
		index int
		out   string
		size  int
	)
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Write a wallet address as a PNG QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			address, err := a.orch.AccountAddress(index)
			if err != nil {
				return err
			}
			if out == "" {
				out = address + ".png"
			}
			if err := wallet.WriteAddressQR(address, out, size); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "QR code for %s written to %s\n", address, out)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "wallet index")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, <address>.png by default")
	cmd.Flags().IntVar(&size, "size", wallet.DefaultQRSize, "image size in pixels")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		index int
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one wallet to a password-encrypted keystore file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			accounts, err := a.store.Load()
			if err != nil {
				return err
			}
			if index < 0 || index >= len(accounts) {
				return fmt.Errorf("%w: wallet index %d out of range (have %d)", model.ErrInvalidInput, index, len(accounts))
			}
			acc := accounts[index]
			if out == "" {
				out = acc.Address + ".keystore.json"
			}

			password, err := a.prompter.AskSecret("Password")
			if err != nil {
				return err
			}
			defer clear(password)
			repeat, err := a.prompter.AskSecret("Repeat password")
			if err != nil {
				return err
			}
			defer clear(repeat)
			if !bytes.Equal(password, repeat) {
				return fmt.Errorf("%w: passwords do not match", model.ErrInvalidInput)
			}

			if err := crypto.EncryptAccount(out, a.cfg.Network, acc, password); err != nil {
				return err
			}
			a.logger.Info("wallet exported", zap.String("address", acc.Address), zap.String("file", out))
			fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s exported to %s\n", acc.Address, out)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "wallet index")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, <address>.keystore.json by default")
	return cmd
}

func newImportCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Add a wallet from a keystore file to the account store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ks, err := crypto.ReadKeystore(in)
			if err != nil {
				return err
			}
			if ks.Network != a.cfg.Network {
				return fmt.Errorf("%w: keystore is for %s, current network is %s", model.ErrInvalidInput, ks.Network, a.cfg.Network)
			}

			password, err := a.prompter.AskSecret(fmt.Sprintf("Password for %s", ks.Address))
			if err != nil {
				return err
			}
			defer clear(password)

			_, acc, err := crypto.DecryptAccount(in, password)
			if err != nil {
				return err
			}
			if err := a.store.Append(acc); err != nil {
				return err
			}
			a.logger.Info("wallet imported", zap.String("address", acc.Address), zap.String("file", in))
			fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s imported\n", acc.Address)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "keystore file")
	cmd.MarkFlagRequired("in")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			router, err := api.SetupRouter(ctx, a.orch, a.pool)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              ":" + a.cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", zap.String("addr", srv.Addr))
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s, API docs at /swagger/index.html\n", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			if a.orch.Cancel() {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopping the running batch...")
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
