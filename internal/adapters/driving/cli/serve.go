package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/codetutor/internal/adapters/driving/handle"
	"github.com/custodia-labs/codetutor/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/logger"
)

var (
	serveAddr        string
	serveLocation    string
	serveDiagnostics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the question answering API over HTTP.

Routes:
  POST /build_vectors  {"pdf_path": "notes.pdf"}
  POST /chat           {"question": "...", "top_k": 3}
  GET  /healthz

The persisted index is loaded on the first question and replaced atomically
after every successful /build_vectors. Send SIGHUP to reload it from disk
after an out-of-band "codetutor ingest". Prompt templates are reloaded when
their files change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	serveCmd.Flags().StringVar(&serveLocation, "location", "", "index location (default from settings)")
	serveCmd.Flags().BoolVar(&serveDiagnostics, "diagnostics", false, "start a gops diagnostics agent")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireIndexService(); err != nil {
		return err
	}
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveDiagnostics {
		if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
			logger.Warn("gops: %v", err)
		} else {
			defer agent.Close()
		}
	}

	if watchPrompts != nil {
		w, err := watchPrompts(func(name string) {
			logger.Info("prompt %q reloaded", name)
		})
		if err != nil {
			logger.Warn("prompt hot reload disabled: %v", err)
		} else {
			defer closeQuietly(w)
		}
	}

	holder := handle.New(indexService, serveLocation)
	if _, err := holder.Get(ctx); err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			logger.Warn("no index at %s yet; POST /build_vectors to create one", holder.Location())
		} else {
			logger.Warn("index not loaded: %v", err)
		}
	}

	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)
	go reloadOnSignal(ctx, holder, hangup)

	server, err := httpapi.NewServer(&httpapi.Ports{
		Index:   holder,
		Indexes: indexService,
		Answer:  answerService,
	})
	if err != nil {
		return err
	}

	addr := resolveServeAddr()
	fmt.Fprintf(cmd.OutOrStdout(), "codetutor listening on %s\n", addr)
	return server.ListenAndServe(ctx, addr)
}

// reloadOnSignal reloads the persisted index on every signal until ctx ends.
func reloadOnSignal(ctx context.Context, holder *handle.Holder, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			published, err := holder.Reload(ctx)
			switch {
			case err != nil:
				logger.Warn("index reload failed: %v", err)
			case published:
				logger.Info("index reloaded from %s", holder.Location())
			default:
				logger.Info("index reload skipped; a newer index is already serving")
			}
		}
	}
}

func resolveServeAddr() string {
	if serveAddr != "" {
		return serveAddr
	}
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil && settings.Server.Addr != "" {
			return settings.Server.Addr
		}
	}
	return domain.DefaultServerAddr
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Debug("close: %v", err)
	}
}
