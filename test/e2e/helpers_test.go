//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xdg/awsgate/internal/testutil"
)

// instance is one running awsgate serve process and its files.
type instance struct {
	session    *mcp.ClientSession
	configPath string
	stateDir   string
	approval   string // approval listen address, empty when approval is off
}

type serveOptions struct {
	awsBody  string // fake aws script body; testutil.EchoAWS if empty
	approval bool   // hold writes for web approval
	extra    string // appended to the generated config
}

// startServe writes a config, launches awsgate serve on stdio and connects
// an MCP client to it. The process is stopped when the test ends.
func startServe(t *testing.T, opts serveOptions) *instance {
	t.Helper()
	testutil.IsolateXDG(t)

	body := opts.awsBody
	if body == "" {
		body = testutil.EchoAWS
	}
	awsPath := testutil.FakeAWS(t, body)

	dir := t.TempDir()
	inst := &instance{
		configPath: filepath.Join(dir, "config.yaml"),
		stateDir:   filepath.Join(dir, "state"),
	}

	var cfg strings.Builder
	fmt.Fprintf(&cfg, "aws:\n  binary: %s\n  timeout: 10s\n", awsPath)
	fmt.Fprintf(&cfg, "fixer:\n  enabled: false\n")
	fmt.Fprintf(&cfg, "audit:\n  file: %s\n  db: %s\n",
		filepath.Join(inst.stateDir, "audit.log"), filepath.Join(inst.stateDir, "audit.db"))
	fmt.Fprintf(&cfg, "log:\n  file: %s\n  level: debug\n", filepath.Join(inst.stateDir, "awsgate.log"))
	if opts.approval {
		inst.approval = testutil.FreeAddr(t)
		fmt.Fprintf(&cfg, "approval:\n  required: true\n  channel: web\n  listen: %s\n  timeout: 30s\n", inst.approval)
	}
	cfg.WriteString(opts.extra)
	if err := os.WriteFile(inst.configPath, []byte(cfg.String()), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.Command(binaryPath, "serve", "--config", inst.configPath)
	cmd.Env = append(os.Environ(), "AWS_CONFIG_FILE="+filepath.Join(dir, "aws-config"))
	client := mcp.NewClient(&mcp.Implementation{Name: "awsgate-e2e", Version: "test"}, nil)
	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		t.Fatalf("connect to awsgate serve: %v", err)
	}
	inst.session = session
	t.Cleanup(func() { _ = session.Close() })
	return inst
}

// call invokes a tool and returns its text and error flag.
func (inst *instance) call(t *testing.T, tool string, args map[string]any) (string, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := inst.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", tool, err)
	}
	var text strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			text.WriteString(tc.Text)
		}
	}
	return text.String(), res.IsError
}

type pendingRequest struct {
	ID  string `json:"id"`
	Cmd string `json:"cmd"`
}

// waitPending polls the approval API until a request is pending.
func (inst *instance) waitPending(t *testing.T) pendingRequest {
	t.Helper()
	client := testutil.NoProxyClient()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get("http://" + inst.approval + "/pending")
		if err == nil {
			var body struct {
				Requests []pendingRequest `json:"requests"`
			}
			decodeErr := json.NewDecoder(resp.Body).Decode(&body)
			_ = resp.Body.Close()
			if decodeErr == nil && len(body.Requests) > 0 {
				return body.Requests[0]
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("no approval request became pending")
	return pendingRequest{}
}

// decide posts an approve or deny decision for id.
func (inst *instance) decide(t *testing.T, action, id string) {
	t.Helper()
	resp, err := testutil.NoProxyClient().Post(
		"http://"+inst.approval+"/"+action+"/"+id, "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST %s: %v", action, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("POST %s status = %d, want 200", action, resp.StatusCode)
	}
}

// runCLI runs an awsgate subcommand against the instance's config.
func (inst *instance) runCLI(t *testing.T, args ...string) string {
	t.Helper()
	args = append(args, "--config", inst.configPath)
	out, err := exec.Command(binaryPath, args...).CombinedOutput()
	if err != nil {
		t.Fatalf("awsgate %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}
