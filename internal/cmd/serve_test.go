package cmd

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/xdg/awsgate/internal/config"
)

// newServeFlagCmd returns a command with serve's flags bound to serveFlags,
// so tests can parse arguments without touching serveCmd.
func newServeFlagCmd(t *testing.T) *cobra.Command {
	t.Helper()
	saved := serveFlags
	t.Cleanup(func() { serveFlags = saved })

	c := &cobra.Command{Use: "serve"}
	f := c.Flags()
	f.BoolVar(&serveFlags.requireApproval, "require-approval", false, "")
	f.StringVar(&serveFlags.approvalChannel, "approval-channel", "", "")
	f.StringVar(&serveFlags.transport, "transport", "", "")
	f.StringVar(&serveFlags.listen, "listen", "", "")
	f.BoolVar(&serveFlags.debug, "debug", false, "")
	return c
}

func TestApplyServeFlags_Unset(t *testing.T) {
	c := newServeFlagCmd(t)
	if err := c.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Approval.Required = true
	cfg.Approval.Channel = config.ChannelWeb
	if err := applyServeFlags(c, cfg); err != nil {
		t.Fatalf("applyServeFlags() error = %v", err)
	}

	if !cfg.Approval.Required || cfg.Approval.Channel != config.ChannelWeb {
		t.Errorf("unset flags overrode config: %+v", cfg.Approval)
	}
	if cfg.Server.Transport != config.TransportStdio {
		t.Errorf("Transport = %q, want %q", cfg.Server.Transport, config.TransportStdio)
	}
}

func TestApplyServeFlags_Override(t *testing.T) {
	c := newServeFlagCmd(t)
	err := c.ParseFlags([]string{
		"--require-approval",
		"--approval-channel", "web",
		"--transport", "http",
		"--listen", "127.0.0.1:9000",
		"--debug",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	if err := applyServeFlags(c, cfg); err != nil {
		t.Fatalf("applyServeFlags() error = %v", err)
	}

	if !cfg.Approval.Required {
		t.Error("Approval.Required = false, want true")
	}
	if cfg.Approval.Channel != config.ChannelWeb {
		t.Errorf("Approval.Channel = %q, want web", cfg.Approval.Channel)
	}
	if cfg.Server.Transport != config.TransportHTTP {
		t.Errorf("Server.Transport = %q, want http", cfg.Server.Transport)
	}
	if cfg.Server.Listen != "127.0.0.1:9000" {
		t.Errorf("Server.Listen = %q, want 127.0.0.1:9000", cfg.Server.Listen)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestApplyServeFlags_FalseOverridesConfig(t *testing.T) {
	c := newServeFlagCmd(t)
	if err := c.ParseFlags([]string{"--require-approval=false"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Approval.Required = true
	if err := applyServeFlags(c, cfg); err != nil {
		t.Fatalf("applyServeFlags() error = %v", err)
	}
	if cfg.Approval.Required {
		t.Error("Approval.Required = true, want false from explicit flag")
	}
}

func TestApplyServeFlags_Invalid(t *testing.T) {
	c := newServeFlagCmd(t)
	if err := c.ParseFlags([]string{"--transport", "carrier-pigeon"}); err != nil {
		t.Fatal(err)
	}

	err := applyServeFlags(c, config.DefaultConfig())
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("applyServeFlags() error = %v, want ErrInvalid", err)
	}

	var exitErr *ExitCodeError
	if !errors.As(startupError(err), &exitErr) || exitErr.Code != ExitConfig {
		t.Errorf("startupError(%v) did not map to ExitConfig", err)
	}
}
