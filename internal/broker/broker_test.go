package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdg/awsgate/internal/approval"
	"github.com/xdg/awsgate/internal/audit"
	"github.com/xdg/awsgate/internal/catalogue"
	"github.com/xdg/awsgate/internal/executor"
	"github.com/xdg/awsgate/internal/policy"
	"github.com/xdg/awsgate/internal/profiles"
)

// fakeExecutor records every request and returns a canned response.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []executor.ExecuteRequest
	resp  executor.ExecuteResponse
}

func (f *fakeExecutor) Execute(_ context.Context, req executor.ExecuteRequest) executor.ExecuteResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.resp
}

func (f *fakeExecutor) Calls() []executor.ExecuteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]executor.ExecuteRequest(nil), f.calls...)
}

// eventLog collects audit events in memory.
type eventLog struct {
	mu     sync.Mutex
	events []audit.Event
}

func (l *eventLog) Record(_ context.Context, e *audit.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, *e)
	return nil
}

func (l *eventLog) Types() []audit.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]audit.EventType, len(l.events))
	for i, e := range l.events {
		types[i] = e.Type
	}
	return types
}

type fakeProfiles struct {
	list []profiles.Profile
	err  error
}

func (f fakeProfiles) List(context.Context) ([]profiles.Profile, error) { return f.list, f.err }
func (f fakeProfiles) ConfigPath() string                                { return "/test/.aws/config" }

func completed(stdout string) executor.ExecuteResponse {
	return executor.ExecuteResponse{Status: executor.StatusCompleted, Stdout: stdout, Duration: 20 * time.Millisecond}
}

type fixture struct {
	broker *Broker
	exec   *fakeExecutor
	events *eventLog
}

func newFixture(t *testing.T, gate *approval.Gate) *fixture {
	t.Helper()
	f := &fixture{
		exec:   &fakeExecutor{resp: completed("{}")},
		events: &eventLog{},
	}
	b, err := New(Options{
		Classifier: catalogue.Default(),
		Executor:   f.exec,
		Gate:       gate,
		Audit:      f.events,
		Profiles:   fakeProfiles{},
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	f.broker = b
	return f
}

func enabledGate(t *testing.T, c approval.Confirmer, timeout time.Duration) *approval.Gate {
	t.Helper()
	g, err := approval.NewGate(approval.GateOptions{Enabled: true, Confirmer: c, Timeout: timeout})
	require.NoError(t, err)
	return g
}

func TestNew_RequiresClassifierAndExecutor(t *testing.T) {
	_, err := New(Options{Executor: &fakeExecutor{}})
	assert.Error(t, err)
	_, err = New(Options{Classifier: catalogue.Default()})
	assert.Error(t, err)
}

func TestHandle_ReadCommandExecutes(t *testing.T) {
	f := newFixture(t, nil)

	res := f.broker.Handle(context.Background(), Request{
		Tool:    policy.ReadToolName,
		Command: "s3 ls",
		Profile: "dev",
		Region:  "us-east-1",
	})

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, catalogue.ReadOnly, res.Classification)
	assert.Equal(t, "s3 ls", res.Entry)
	assert.Equal(t, "{}", res.Stdout)
	assert.NotEmpty(t, res.RequestID)

	calls := f.exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"s3", "ls"}, calls[0].Args)
	assert.Equal(t, "dev", calls[0].Profile)
	assert.Equal(t, "us-east-1", calls[0].Region)
	assert.Equal(t, 5*time.Second, calls[0].Timeout)

	assert.Equal(t, []audit.EventType{audit.EventRequest, audit.EventAllow, audit.EventComplete}, f.events.Types())
}

func TestHandle_IntentMismatch(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		command  string
		wantCode string
	}{
		{"write on read tool", policy.ReadToolName, "s3 mb s3://new-bucket", policy.CodeWriteOnReadTool},
		{"uncatalogued on read tool", "read", "kms encrypt --key-id k", policy.CodeWriteOnReadTool},
		{"boundary on read tool", "read", "ec2 describex", policy.CodeWriteOnReadTool},
		{"read on write tool", policy.WriteToolName, "ec2 describe-instances", policy.CodeReadOnWriteTool},
		{"aws prefix read on write tool", "write", "aws s3 ls", policy.CodeReadOnWriteTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			res := f.broker.Handle(context.Background(), Request{Tool: tt.tool, Command: tt.command})

			assert.Equal(t, StatusDenied, res.Status)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.NotEmpty(t, res.Reason)
			assert.False(t, res.Executed())
			assert.Empty(t, f.exec.Calls(), "denied request must not execute")
			assert.Equal(t, []audit.EventType{audit.EventRequest, audit.EventDeny}, f.events.Types())
		})
	}
}

func TestHandle_WriteWithGateDisabledExecutesOnce(t *testing.T) {
	f := newFixture(t, nil)

	res := f.broker.Handle(context.Background(), Request{
		Tool:    "write",
		Command: `aws dynamodb put-item --table-name t --item '{"id": {"S": "1"}}'`,
	})

	assert.Equal(t, StatusOK, res.Status)
	calls := f.exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"dynamodb", "put-item", "--table-name", "t", "--item", `{"id": {"S": "1"}}`}, calls[0].Args)
}

func TestHandle_ApprovalRejected(t *testing.T) {
	confirmer := &approval.StaticConfirmer{Answer: false}
	f := newFixture(t, enabledGate(t, confirmer, time.Minute))

	res := f.broker.Handle(context.Background(), Request{Tool: "write", Command: "s3 rb s3://old", Profile: "prod"})

	assert.Equal(t, StatusDenied, res.Status)
	assert.Equal(t, CodeApprovalRejected, res.Code)
	assert.Empty(t, f.exec.Calls(), "rejected write must not execute")

	prompts := confirmer.Calls()
	require.Len(t, prompts, 1)
	assert.Equal(t, "s3 rb s3://old", prompts[0].Command)
	assert.Equal(t, "prod", prompts[0].Profile)
	assert.Equal(t, res.RequestID, prompts[0].RequestID)

	assert.Equal(t, []audit.EventType{audit.EventRequest, audit.EventAllow, audit.EventReject}, f.events.Types())
}

func TestHandle_ApprovalConfirmerError(t *testing.T) {
	confirmer := &approval.StaticConfirmer{Err: errors.New("tty closed")}
	f := newFixture(t, enabledGate(t, confirmer, time.Minute))

	res := f.broker.Handle(context.Background(), Request{Tool: "write", Command: "s3 rb s3://old"})

	assert.Equal(t, CodeApprovalRejected, res.Code)
	assert.Contains(t, res.Reason, "tty closed")
	assert.Empty(t, f.exec.Calls())
}

func TestHandle_ApprovalGranted(t *testing.T) {
	confirmer := &approval.StaticConfirmer{Answer: true}
	f := newFixture(t, enabledGate(t, confirmer, time.Minute))

	res := f.broker.Handle(context.Background(), Request{Tool: "write", Command: "s3 mb s3://new"})

	assert.Equal(t, StatusOK, res.Status)
	require.Len(t, f.exec.Calls(), 1)
	assert.Equal(t, []audit.EventType{
		audit.EventRequest, audit.EventAllow, audit.EventApprove, audit.EventComplete,
	}, f.events.Types())
}

func TestHandle_ApprovalTimeout(t *testing.T) {
	waitForever := approval.ConfirmerFunc(func(ctx context.Context, _ approval.Prompt) (bool, error) {
		<-ctx.Done()
		return false, nil
	})
	f := newFixture(t, enabledGate(t, waitForever, 20*time.Millisecond))

	res := f.broker.Handle(context.Background(), Request{Tool: "write", Command: "s3 mb s3://new"})

	assert.Equal(t, StatusDenied, res.Status)
	assert.Equal(t, CodeApprovalTimeout, res.Code)
	assert.Empty(t, f.exec.Calls())
}

func TestHandle_CanceledWhileAwaitingApproval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	waitForCancel := approval.ConfirmerFunc(func(ctx context.Context, _ approval.Prompt) (bool, error) {
		cancel()
		<-ctx.Done()
		return false, ctx.Err()
	})
	f := newFixture(t, enabledGate(t, waitForCancel, time.Minute))

	res := f.broker.Handle(ctx, Request{Tool: "write", Command: "s3 mb s3://new"})

	assert.Equal(t, StatusCanceled, res.Status)
	assert.Empty(t, f.exec.Calls())
	assert.Contains(t, f.events.Types(), audit.EventCancel)
}

func TestHandle_ReadNeverPrompts(t *testing.T) {
	confirmer := &approval.StaticConfirmer{Answer: false}
	f := newFixture(t, enabledGate(t, confirmer, time.Minute))

	res := f.broker.Handle(context.Background(), Request{Tool: "read", Command: "sts get-caller-identity"})

	assert.Equal(t, StatusOK, res.Status)
	assert.Empty(t, confirmer.Calls())
}

func TestHandle_ExecutionOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		resp       executor.ExecuteResponse
		wantStatus Status
		wantEvent  audit.EventType
	}{
		{"non-zero exit", executor.ExecuteResponse{Status: executor.StatusCompleted, ExitCode: 254, Stderr: "NoSuchBucket"}, StatusFailed, audit.EventComplete},
		{"timeout", executor.ExecuteResponse{Status: executor.StatusTimeout, ExitCode: executor.ExitCodeNone, TimedOut: true, Error: "command timed out after 5s"}, StatusTimeout, audit.EventTimeout},
		{"canceled", executor.ExecuteResponse{Status: executor.StatusCanceled, ExitCode: executor.ExitCodeNone}, StatusCanceled, audit.EventCancel},
		{"missing binary", executor.ExecuteResponse{Status: executor.StatusError, ExitCode: executor.ExitCodeNone, Error: "executable not found: aws"}, StatusError, audit.EventComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.exec.resp = tt.resp

			res := f.broker.Handle(context.Background(), Request{Tool: "read", Command: "s3 ls s3://bucket"})

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.resp.ExitCode, res.ExitCode)
			assert.Equal(t, tt.resp.Stderr, res.Stderr)
			assert.Equal(t, tt.resp.TimedOut, res.TimedOut)
			assert.Equal(t, tt.resp.Error, res.Error)
			types := f.events.Types()
			assert.Equal(t, tt.wantEvent, types[len(types)-1])
		})
	}
}

func TestHandle_RequestValidation(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		command  string
		wantCode string
	}{
		{"unknown tool", "execute_aws_command", "s3 ls", CodeUnknownTool},
		{"empty read", "read", "", CodeEmptyCommand},
		{"blank write", "write", "   ", CodeEmptyCommand},
		{"variable expansion", "read", "s3 ls $HOME", CodeInvalidCommand},
		{"command substitution", "read", "s3 ls $(whoami)", CodeInvalidCommand},
		{"pipeline", "write", "s3 rm s3://b/k | tee log", CodeInvalidCommand},
		{"unterminated quote", "read", "s3 ls 'bucket", CodeInvalidCommand},
		{"quoted empty service", "read", "'' describe-instances", policy.CodeWriteOnReadTool},
		{"quoting empties operation", "read", `ec2 describe-""`, CodeInvalidCommand},
		{"only program name", "write", "aws", CodeInvalidCommand},

		// Quoting must not turn a read into a write-labeled call.
		{"quoted read on write tool", "write", "s3 'ls'", CodeInvalidCommand},
		{"double-quoted read on write tool", "write", `ec2 "describe-instances"`, CodeInvalidCommand},
		{"quoted read split on write tool", "write", `iam "list-users" --max-items 5`, CodeInvalidCommand},

		// Global options go in the profile and region fields.
		{"option before service on read tool", "read", "--profile list-prod ec2 terminate-instances --instance-ids i-1", policy.CodeWriteOnReadTool},
		{"region option before service on read tool", "read", "--region get-x s3 rb s3://victim --force", policy.CodeWriteOnReadTool},
		{"option before service on write tool", "write", "--profile prod s3 rb s3://bucket", CodeInvalidCommand},
		{"option after aws on write tool", "write", "aws --region us-east-1 s3 rb s3://bucket", CodeInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			res := f.broker.Handle(context.Background(), Request{Tool: tt.tool, Command: tt.command})

			assert.Equal(t, StatusDenied, res.Status)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.Empty(t, f.exec.Calls())
		})
	}
}

func TestHandle_DefaultProfileAndRegion(t *testing.T) {
	exec := &fakeExecutor{resp: completed("")}
	b, err := New(Options{
		Classifier:     catalogue.Default(),
		Executor:       exec,
		DefaultProfile: "staging",
		DefaultRegion:  "eu-central-1",
	})
	require.NoError(t, err)

	b.Handle(context.Background(), Request{Tool: "read", Command: "s3 ls"})
	b.Handle(context.Background(), Request{Tool: "read", Command: "s3 ls", Profile: "dev", Region: "us-west-2"})

	calls := exec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "staging", calls[0].Profile)
	assert.Equal(t, "eu-central-1", calls[0].Region)
	assert.Equal(t, "dev", calls[1].Profile)
	assert.Equal(t, "us-west-2", calls[1].Region)
	assert.Equal(t, DefaultTimeout, calls[0].Timeout)
}

func TestHandle_AuditFields(t *testing.T) {
	f := newFixture(t, nil)
	res := f.broker.Handle(context.Background(), Request{Tool: policy.ReadToolName, Command: "ec2 describe-instances", Profile: "p", Region: "r"})

	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	require.NotEmpty(t, f.events.events)
	for _, e := range f.events.events {
		assert.Equal(t, res.RequestID, e.RequestID)
		assert.Equal(t, "read", e.Tool)
		assert.Equal(t, "p", e.Profile)
		assert.Equal(t, "r", e.Region)
		assert.Equal(t, "ec2 describe-instances", e.Cmd)
	}
	assert.Equal(t, "ec2 describe-*", f.events.events[1].Entry)
}

func TestResolveTool(t *testing.T) {
	for name, want := range map[string]policy.Intent{
		policy.ReadToolName:  policy.ReadIntent,
		"read":               policy.ReadIntent,
		policy.WriteToolName: policy.WriteIntent,
		"write":              policy.WriteIntent,
	} {
		got, ok := ResolveTool(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := ResolveTool("READ")
	assert.False(t, ok)
}

func TestListProfiles(t *testing.T) {
	b, err := New(Options{
		Classifier: catalogue.Default(),
		Executor:   &fakeExecutor{},
		Profiles:   fakeProfiles{list: []profiles.Profile{{Name: "default", Region: "us-east-1"}}},
	})
	require.NoError(t, err)

	text, err := b.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Available AWS profiles:\nProfile: default (region: us-east-1)", text)
	assert.Equal(t, 1, b.ProfileCount(context.Background()))

	b.profiles = fakeProfiles{}
	text, err = b.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No AWS profiles found in /test/.aws/config", text)
}
