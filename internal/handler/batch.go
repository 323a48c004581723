package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/AlexZinkM/faucetbot/internal/batch"
	"github.com/AlexZinkM/faucetbot/internal/model"
	"github.com/AlexZinkM/faucetbot/internal/proxy"
	"github.com/AlexZinkM/faucetbot/internal/wallet"
)

const maxBodyBytes = 1 << 20

// BatchHandler exposes the orchestrator commands over HTTP
type BatchHandler struct {
	orch    *batch.Orchestrator
	proxies *proxy.Pool
	// batches outlive the request that started them
	baseCtx context.Context
}

// NewBatchHandler creates a new BatchHandler. Batches started over HTTP run
// under ctx.
func NewBatchHandler(ctx context.Context, orch *batch.Orchestrator, proxies *proxy.Pool) *BatchHandler {
	return &BatchHandler{orch: orch, proxies: proxies, baseCtx: ctx}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), model.ErrorResponse{Error: err.Error(), Code: model.ErrorCode(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrAlreadyRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	return nil
}

func accepted(w http.ResponseWriter, b *batch.Batch, message string) {
	writeJSON(w, http.StatusAccepted, model.BatchResponse{ID: b.ID, Workflow: b.Workflow, Message: message})
}

// Generate handles POST /batch/generate
// @Summary      Generate wallets and claim the faucet
// @Description  Starts a batch that creates count wallets, stores each one and claims the faucet for it
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request  body      model.GenerateRequest  true  "Wallet count"
// @Success      202      {object}  model.BatchResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /batch/generate [post]
func (h *BatchHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.GenerateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	b, err := h.orch.GenerateAndClaim(h.baseCtx, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	accepted(w, b, fmt.Sprintf("Generating %d wallets", req.Count))
}

// Claim handles POST /batch/claim
// @Summary      Claim the faucet for stored wallets
// @Description  Claims for every stored wallet when all is true, otherwise for the wallet at index
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request  body      model.ClaimRequest  true  "Claim mode"
// @Success      202      {object}  model.BatchResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /batch/claim [post]
func (h *BatchHandler) Claim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ClaimRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		b   *batch.Batch
		err error
	)
	switch {
	case req.All:
		b, err = h.orch.ClaimAll(h.baseCtx)
	case req.Index != nil:
		b, err = h.orch.ClaimOne(h.baseCtx, batch.StaticSelector{Index: *req.Index})
	default:
		err = fmt.Errorf("%w: either all or index is required", model.ErrInvalidInput)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	accepted(w, b, "Faucet claim started")
}

// Send handles POST /batch/send
// @Summary      Send tokens to a recipient
// @Description  With all=true sends amount from every wallet holding at least amount (confirm must be true), otherwise from the wallet at index
// @Tags         batch
// @Accept       json
// @Produce      json
// @Param        request  body      model.SendRequest  true  "Transfer data"
// @Success      202      {object}  model.BatchResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /batch/send [post]
func (h *BatchHandler) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SendRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		b   *batch.Batch
		err error
	)
	switch {
	case req.All && !req.Confirm:
		err = fmt.Errorf("%w: sending from all wallets requires confirm=true", model.ErrInvalidInput)
	case req.All:
		b, err = h.orch.SendAllSufficient(h.baseCtx, req.ToAddress, req.Amount, batch.StaticConfirmer{Answer: true})
	case req.Index != nil:
		b, err = h.orch.SendOne(h.baseCtx, batch.StaticSelector{Index: *req.Index}, req.ToAddress, req.Amount)
	default:
		err = fmt.Errorf("%w: either all or index is required", model.ErrInvalidInput)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	accepted(w, b, "Transfer started")
}

// Cancel handles POST /batch/cancel
// @Summary      Cancel the running batch
// @Tags         batch
// @Produce      json
// @Success      200  {object}  model.CancelResponse
// @Router       /batch/cancel [post]
func (h *BatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. should be POST", http.StatusMethodNotAllowed)
		return
	}

	resp := model.CancelResponse{Cancelled: h.orch.Cancel(), Message: "No process is running"}
	if resp.Cancelled {
		resp.Message = "Cancellation requested"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /batch/status
// @Summary      Batch state
// @Description  Current state and the report of the last finished batch
// @Tags         batch
// @Produce      json
// @Success      200  {object}  model.BatchStatus
// @Router       /batch/status [get]
func (h *BatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.orch.Status())
}

// Proxy handles GET and POST /proxy
// @Summary      List or pin egress proxies
// @Description  GET lists the pool and the active proxy, POST pins one (empty clears)
// @Tags         proxy
// @Accept       json
// @Produce      json
// @Param        request  body      model.ProxyRequest  false  "Proxy to pin"
// @Success      200      {object}  model.ProxyResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /proxy [get]
// @Router       /proxy [post]
func (h *BatchHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req model.ProxyRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := h.orch.SetActiveProxy(req.Proxy); err != nil {
			writeError(w, err)
			return
		}
	default:
		http.Error(w, "Method not allowed. Should be GET or POST", http.StatusMethodNotAllowed)
		return
	}

	list := h.proxies.List()
	for i, p := range list {
		list[i] = proxy.Redact(p)
	}
	writeJSON(w, http.StatusOK, model.ProxyResponse{Proxies: list, Active: h.proxies.DescribeActive()})
}

// Summary handles GET /summary
// @Summary      Wallet summary
// @Description  Wallet count, total balance and active proxy. refresh=true re-reads every balance
// @Tags         wallets
// @Produce      json
// @Param        refresh  query     bool  false  "Recompute balances"
// @Success      200      {object}  model.Summary
// @Router       /summary [get]
func (h *BatchHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	sum := h.orch.Sink().Summary()
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh || sum.UpdatedAt.IsZero() {
		sum = h.orch.RefreshSummary(r.Context())
	}
	writeJSON(w, http.StatusOK, sum)
}

// Logs handles GET and DELETE /logs
// @Summary      Event log
// @Description  GET returns the bounded event log, DELETE clears it
// @Tags         logs
// @Produce      json
// @Success      200  {array}  model.LogEntry
// @Router       /logs [get]
// @Router       /logs [delete]
func (h *BatchHandler) Logs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodDelete:
		h.orch.ClearLogs()
	default:
		http.Error(w, "Method not allowed. Should be GET or DELETE", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.orch.Sink().Entries())
}

// Accounts handles GET /accounts
// @Summary      Stored wallets
// @Description  Addresses and balances of every stored wallet, without secrets
// @Tags         wallets
// @Produce      json
// @Success      200  {array}   model.AccountBalance
// @Failure      500  {object}  model.ErrorResponse
// @Router       /accounts [get]
func (h *BatchHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	list, err := h.orch.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AccountQR handles GET /accounts/qr
// @Summary      Wallet address QR code
// @Tags         wallets
// @Produce      png
// @Param        index  query  int  true  "Wallet index"
// @Success      200
// @Failure      400  {object}  model.ErrorResponse
// @Router       /accounts/qr [get]
func (h *BatchHandler) AccountQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: index must be an integer", model.ErrInvalidInput))
		return
	}
	address, err := h.orch.AccountAddress(index)
	if err != nil {
		writeError(w, err)
		return
	}

	png, err := wallet.AddressQR(address, wallet.DefaultQRSize)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
