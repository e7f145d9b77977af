package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ICE3BR/IA-Data-Analysis/internal/web"
)

var serveAddr string

// modelLister is implemented by runtimes that can report pulled models.
type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		responder, rt, err := newResponder(c)
		if err != nil {
			return err
		}
		if ml, ok := rt.(modelLister); ok {
			checkModel(cmd.Context(), ml, c.Model)
		}

		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		server := web.NewServer(responder, web.Options{
			PreviewRows:    c.PreviewRows,
			MaxUploadBytes: c.MaxUploadBytes(),
			ChartDir:       c.ChartDir,
			CacheTTL:       c.CacheTTL(),
			RequestTimeout: c.OllamaTimeout() + 30*time.Second,
		})

		// Graceful shutdown
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("shutdown error", "error", err)
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on http://%s (model %s)\n", displayAddr(addr), c.Model)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// checkModel warns when Ollama is unreachable or the model is not pulled.
func checkModel(ctx context.Context, ml modelLister, model string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := ml.ListModels(ctx)
	if err != nil {
		slog.Warn("language model backend not reachable; prompts will fail until it is", "error", err)
		return
	}
	for _, m := range models {
		if m == model {
			return
		}
	}
	slog.Warn("model not found locally; run `ollama pull` first", "model", model, "available", models)
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8501)")
}
