package console

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const timeLayout = "15:04:05"

// Renderer prints sink entries as colored lines.
type Renderer struct {
	out    io.Writer
	colors map[model.Severity]*color.Color
	plain  *color.Color
}

// NewRenderer writes to out. Colors are used only when colorize is set.
func NewRenderer(out io.Writer, colorize bool) *Renderer {
	r := &Renderer{
		out: out,
		colors: map[model.Severity]*color.Color{
			model.SeveritySystem:   color.New(color.FgHiWhite),
			model.SeverityError:    color.New(color.FgHiRed),
			model.SeverityProgress: color.New(color.FgHiYellow),
			model.SeveritySuccess:  color.New(color.FgHiGreen),
		},
		plain: color.New(color.Reset),
	}
	for _, c := range r.colors {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	r.plain.DisableColor()
	return r
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (r *Renderer) Render(e model.LogEntry) {
	c, ok := r.colors[e.Severity]
	if !ok {
		c = r.plain
	}
	c.Fprintf(r.out, "[%s] %s\n", e.Timestamp.Format(timeLayout), e.Message)
}

// Follow renders entries until the channel closes or ctx is done.
func (r *Renderer) Follow(ctx context.Context, entries <-chan model.LogEntry) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			r.Render(e)
		}
	}
}

func (r *Renderer) RenderSummary(sum model.Summary) {
	c := r.colors[model.SeveritySuccess]
	fmt.Fprintln(r.out)
	c.Fprintf(r.out, "Wallets: %d\n", sum.TotalWallets)
	c.Fprintf(r.out, "Total balance: %s %s\n", sum.TotalBalance, sum.Symbol)
	c.Fprintf(r.out, "Active proxy: %s\n", sum.ActiveProxy)
}

func (r *Renderer) RenderAccounts(accounts []model.AccountBalance, symbol string) {
	for _, a := range accounts {
		if a.Error != "" {
			r.colors[model.SeverityError].Fprintf(r.out, "%3d  %s  balance unavailable: %s\n", a.Index, a.Address, a.Error)
			continue
		}
		fmt.Fprintf(r.out, "%3d  %s  %s %s\n", a.Index, a.Address, a.Balance, symbol)
	}
}
