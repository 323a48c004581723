package batch

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/faucetbot/internal/model"
)

// GenerateAndClaim creates count wallets one after another. Each wallet is
// stored before its faucet claim so a failed or interrupted claim never
// loses the key.
func (o *Orchestrator) GenerateAndClaim(ctx context.Context, count int) (*Batch, error) {
	if count < 1 {
		o.sink.Errorf("Invalid wallet count.")
		return nil, fmt.Errorf("%w: wallet count must be at least 1, got %d", model.ErrInvalidInput, count)
	}

	return o.start(ctx, WorkflowGenerate, func(ctx context.Context, b *Batch, r *model.Report) {
		o.sink.Systemf("Generating %d wallets and claiming the faucet...", count)

		for i := 1; i <= count; i++ {
			if !o.checkpoint(b, r) {
				break
			}
			o.sink.Progressf("Processing wallet %d/%d", i, count)
			r.Processed++

			if o.generateOne(ctx) {
				r.Succeeded++
			} else {
				r.Failed++
			}
			o.RefreshSummary(ctx)

			if i < count && !o.pause(b, r) {
				break
			}
		}

		if !r.Cancelled {
			o.sink.Systemf("Process completed.")
		}
	})
}

func (o *Orchestrator) generateOne(ctx context.Context) bool {
	endpoint := o.proxies.Select()

	acc, err := o.opts.Generate()
	if err != nil {
		o.sink.Errorf("Failed to generate wallet: %v", err)
		return false
	}
	o.sink.Systemf("New wallet created: %s", short(acc.Address))

	if err := o.store.Append(acc); err != nil {
		o.sink.Errorf("Failed to save wallet %s, skipping faucet claim: %v", short(acc.Address), err)
		return false
	}
	o.sink.Systemf("Wallet saved to account store.")

	return o.claimWallet(ctx, acc.Address, endpoint)
}
