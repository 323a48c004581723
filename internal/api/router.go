package api

import (
	"context"
	"net/http"

	_ "github.com/AlexZinkM/faucetbot/docs"
	"github.com/AlexZinkM/faucetbot/internal/batch"
	"github.com/AlexZinkM/faucetbot/internal/handler"
	"github.com/AlexZinkM/faucetbot/internal/proxy"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers. Batches started through it run
// under ctx rather than the request context.
func SetupRouter(ctx context.Context, orch *batch.Orchestrator, proxies *proxy.Pool) (http.Handler, error) {
	batchHandler := handler.NewBatchHandler(ctx, orch, proxies)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	mux.Handle("/metrics", orch.Metrics().Handler())

	// Batch endpoints
	mux.HandleFunc("/batch/generate", batchHandler.Generate)
	mux.HandleFunc("/batch/claim", batchHandler.Claim)
	mux.HandleFunc("/batch/send", batchHandler.Send)
	mux.HandleFunc("/batch/cancel", batchHandler.Cancel)
	mux.HandleFunc("/batch/status", batchHandler.Status)

	mux.HandleFunc("/proxy", batchHandler.Proxy)
	mux.HandleFunc("/summary", batchHandler.Summary)
	mux.HandleFunc("/logs", batchHandler.Logs)
	mux.HandleFunc("/accounts", batchHandler.Accounts)
	mux.HandleFunc("/accounts/qr", batchHandler.AccountQR)

	return mux, nil
}
