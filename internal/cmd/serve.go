package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/awsgate/internal/approval"
	"github.com/xdg/awsgate/internal/audit"
	"github.com/xdg/awsgate/internal/broker"
	"github.com/xdg/awsgate/internal/catalogue"
	"github.com/xdg/awsgate/internal/clog"
	"github.com/xdg/awsgate/internal/config"
	"github.com/xdg/awsgate/internal/executor"
	"github.com/xdg/awsgate/internal/fixer"
	"github.com/xdg/awsgate/internal/mcpserver"
	"github.com/xdg/awsgate/internal/profiles"
)

// shutdownTimeout bounds graceful shutdown of HTTP listeners.
const shutdownTimeout = 10 * time.Second

var serveFlags struct {
	requireApproval bool
	approvalChannel string
	transport       string
	listen          string
	debug           bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server on stdio (default) or streamable HTTP.

With --require-approval, every write command is shown to an operator before
it runs: on the controlling terminal (--approval-channel terminal) or through
a localhost web API (--approval-channel web).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.BoolVar(&serveFlags.requireApproval, "require-approval", false, "hold write commands for operator approval")
	f.StringVar(&serveFlags.approvalChannel, "approval-channel", "", "approval channel: terminal or web")
	f.StringVar(&serveFlags.transport, "transport", "", "MCP transport: stdio or http")
	f.StringVar(&serveFlags.listen, "listen", "", "listen address for the http transport")
	f.BoolVar(&serveFlags.debug, "debug", false, "log at debug level")
	rootCmd.AddCommand(serveCmd)
}

// applyServeFlags overlays flags the user set onto cfg.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("require-approval") {
		cfg.Approval.Required = serveFlags.requireApproval
	}
	if flags.Changed("approval-channel") {
		cfg.Approval.Channel = serveFlags.approvalChannel
	}
	if flags.Changed("transport") {
		cfg.Server.Transport = serveFlags.transport
	}
	if flags.Changed("listen") {
		cfg.Server.Listen = serveFlags.listen
	}
	if serveFlags.debug {
		cfg.Log.Level = "debug"
	}
	return config.Validate(cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return startupError(fmt.Errorf("failed to load config: %w", err))
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return startupError(err)
	}

	if err := clog.Configure(cfg.Log.File, clog.ParseLevel(cfg.Log.Level), false); err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer clog.Close()
	clog.RedirectStdLog(clog.LevelWarn)
	defer log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return startupError(err)
	}
	defer a.Close()

	clog.Info("awsgate serving on %s (approval required: %v)", cfg.Server.Transport, cfg.Approval.Required)

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		return serveHTTP(ctx, a.server, cfg.Server.Listen)
	default:
		err := a.server.RunStdio(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("stdio transport: %w", err)
		}
		return nil
	}
}

func serveHTTP(ctx context.Context, s *mcpserver.Server, addr string) error {
	h := mcpserver.NewHTTPServer(addr, s)
	if err := h.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	clog.Debug("shutting down http transport")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("error during http shutdown: %w", err)
	}
	return nil
}

// app holds everything serve wires together, and what must be closed.
type app struct {
	server  *mcpserver.Server
	broker  *broker.Broker
	closers []io.Closer
	stops   []func(context.Context) error
}

// newApp builds the catalogue, audit sinks, approval gate, executor, broker,
// fixer and MCP server from cfg.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{}

	cat, err := catalogue.Load(cfg.Catalogue.File, cfg.Catalogue.Extra)
	if err != nil {
		return nil, err
	}
	clog.Info("catalogue loaded: %d entries", cat.Len())

	recorder, err := a.openAudit(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	gate, err := a.openGate(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	b, err := broker.New(broker.Options{
		Classifier:     cat,
		Executor:       executor.NewAWSExecutor(cfg.AWS.Binary),
		Gate:           gate,
		Audit:          recorder,
		Profiles:       &profiles.Lister{Path: cfg.AWS.ConfigFile},
		Timeout:        cfg.ExecTimeout(),
		DefaultProfile: cfg.AWS.Profile,
		DefaultRegion:  cfg.AWS.Region,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.broker = b

	opts := mcpserver.Options{Broker: b}
	if cfg.FixerEnabled() {
		opts.Fixer = fixer.New(fixer.NewBedrockMessenger(fixer.Options{
			Model:     cfg.Fixer.Model,
			Region:    cfg.Fixer.Region,
			MaxTokens: cfg.Fixer.MaxTokens,
		}))
		clog.Info("command fixer enabled (model %s)", cfg.Fixer.Model)
	}
	a.server = mcpserver.New(opts)
	return a, nil
}

func (a *app) openAudit(cfg *config.Config) (audit.Recorder, error) {
	if !cfg.AuditEnabled() {
		clog.Info("audit disabled")
		return audit.Nop{}, nil
	}

	var sinks audit.Multi
	if cfg.Audit.File != "" {
		l, closer, err := audit.OpenLogFile(cfg.Audit.File)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closer)
		sinks = append(sinks, l)
		clog.Info("audit log: %s", cfg.Audit.File)
	}
	if cfg.Audit.DB != "" {
		store, err := audit.OpenStore(cfg.Audit.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		sinks = append(sinks, store)
		clog.Info("audit store: %s", cfg.Audit.DB)
	}
	return sinks, nil
}

func (a *app) openGate(cfg *config.Config) (*approval.Gate, error) {
	if !cfg.Approval.Required {
		return approval.Disabled(), nil
	}

	opts := approval.GateOptions{
		Enabled: true,
		Timeout: cfg.ApprovalTimeout(),
		OnTransition: func(p approval.Prompt, from, to approval.State) {
			clog.With("req", p.RequestID).Debug("approval %s -> %s", from, to)
		},
	}

	switch cfg.Approval.Channel {
	case config.ChannelWeb:
		queue := approval.NewQueueWithTimeout(cfg.ApprovalTimeout())
		srv := approval.NewServer(cfg.Approval.Listen, queue)
		if err := srv.Start(); err != nil {
			return nil, err
		}
		a.stops = append(a.stops, srv.Stop)
		opts.Confirmer = approval.NewWebConfirmer(queue)
		opts.Slots = webSlots
	default:
		tc, err := approval.OpenTerminal("")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, tc)
		opts.Confirmer = tc
	}

	clog.Info("approval required via %s channel (timeout %s)", cfg.Approval.Channel, cfg.ApprovalTimeout())
	return approval.NewGate(opts)
}

// webSlots is how many web approvals may be pending at once.
const webSlots = 32

// Close stops listeners and closes files. It is safe to call more than once.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, stop := range a.stops {
		if err := stop(ctx); err != nil {
			clog.Warn("shutdown: %v", err)
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			clog.Warn("close: %v", err)
		}
	}
	a.stops, a.closers = nil, nil
}
