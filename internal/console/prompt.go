package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlexZinkM/faucetbot/internal/common"
	"github.com/AlexZinkM/faucetbot/internal/model"

	"github.com/manifoldco/promptui"
)

// Prompter implements the interactive wallet selector and confirmations.
type Prompter struct {
	Symbol string
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

func accountLabel(a model.AccountBalance, symbol string) string {
	if a.Error != "" {
		return fmt.Sprintf("%s (balance unavailable)", common.ShortAddress(a.Address))
	}
	return fmt.Sprintf("%s (%s %s)", common.ShortAddress(a.Address), a.Balance, symbol)
}

// Select asks the user to pick a wallet. Escape or Ctrl+C yields
// model.ErrCancelled.
func (p *Prompter) Select(_ context.Context, accounts []model.AccountBalance) (int, error) {
	items := make([]string, len(accounts))
	for i, a := range accounts {
		items[i] = accountLabel(a, p.Symbol)
	}

	sel := promptui.Select{
		Label:  "Select wallet",
		Items:  items,
		Size:   10,
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}
	idx, _, err := sel.Run()
	if err != nil {
		if isAbort(err) {
			return -1, model.ErrCancelled
		}
		return -1, err
	}
	return idx, nil
}

// Confirm asks a y/N question. Anything but yes is a decline.
func (p *Prompter) Confirm(_ context.Context, prompt string) (bool, error) {
	confirm := promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
		Stdin:     p.Stdin,
		Stdout:    p.Stdout,
	}
	if _, err := confirm.Run(); err != nil {
		if isAbort(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Ask reads a non-empty line.
func (p *Prompter) Ask(label string) (string, error) {
	text := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("input must not be empty")
			}
			return nil
		},
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}
	input, err := text.Run()
	if err != nil {
		if isAbort(err) {
			return "", model.ErrCancelled
		}
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// AskSecret reads a non-empty line without echoing it.
func (p *Prompter) AskSecret(label string) ([]byte, error) {
	text := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("input must not be empty")
			}
			return nil
		},
		Stdin:  p.Stdin,
		Stdout: p.Stdout,
	}
	input, err := text.Run()
	if err != nil {
		if isAbort(err) {
			return nil, model.ErrCancelled
		}
		return nil, err
	}
	return []byte(input), nil
}

func isAbort(err error) bool {
	return errors.Is(err, promptui.ErrAbort) ||
		errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrEOF)
}
