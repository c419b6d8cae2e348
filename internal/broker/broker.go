// Package broker handles one tool invocation end to end: classify the
// command, check it against the tool that was called, hold writes for
// approval when required, then run aws.
package broker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xdg/awsgate/internal/approval"
	"github.com/xdg/awsgate/internal/audit"
	"github.com/xdg/awsgate/internal/catalogue"
	"github.com/xdg/awsgate/internal/clog"
	"github.com/xdg/awsgate/internal/executor"
	"github.com/xdg/awsgate/internal/policy"
	"github.com/xdg/awsgate/internal/profiles"
)

// DefaultTimeout bounds each aws process.
const DefaultTimeout = 30 * time.Second

// ProfileLister lists configured AWS profiles.
type ProfileLister interface {
	List(ctx context.Context) ([]profiles.Profile, error)
	ConfigPath() string
}

// Options configures a Broker.
type Options struct {
	Classifier catalogue.Classifier
	Executor   executor.Executor

	Gate     *approval.Gate   // nil means approval disabled
	Audit    audit.Recorder   // nil means no audit trail
	Profiles ProfileLister    // nil means the default shared config
	Now      func() time.Time // nil means time.Now

	Timeout        time.Duration
	DefaultProfile string
	DefaultRegion  string
}

// Broker is safe for concurrent use.
type Broker struct {
	classifier catalogue.Classifier
	exec       executor.Executor
	gate       *approval.Gate
	audit      audit.Recorder
	profiles   ProfileLister
	now        func() time.Time

	timeout        time.Duration
	defaultProfile string
	defaultRegion  string
}

// New creates a Broker.
func New(opts Options) (*Broker, error) {
	if opts.Classifier == nil {
		return nil, errors.New("broker: classifier is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("broker: executor is required")
	}
	if opts.Gate == nil {
		opts.Gate = approval.Disabled()
	}
	if opts.Audit == nil {
		opts.Audit = audit.Nop{}
	}
	if opts.Profiles == nil {
		opts.Profiles = &profiles.Lister{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Broker{
		classifier:     opts.Classifier,
		exec:           opts.Executor,
		gate:           opts.Gate,
		audit:          opts.Audit,
		profiles:       opts.Profiles,
		now:            opts.Now,
		timeout:        opts.Timeout,
		defaultProfile: opts.DefaultProfile,
		defaultRegion:  opts.DefaultRegion,
	}, nil
}

// ResolveTool maps a tool name to its intent. Both the MCP tool names and
// the short forms "read" and "write" are accepted.
func ResolveTool(name string) (policy.Intent, bool) {
	switch name {
	case policy.ReadToolName, "read":
		return policy.ReadIntent, true
	case policy.WriteToolName, "write":
		return policy.WriteIntent, true
	}
	return 0, false
}

// request carries per-call state through Handle.
type request struct {
	Request
	id    string
	tool  string
	log   *clog.Scoped
	start time.Time
}

// Handle runs req through classification, policy, approval and execution.
// The aws process starts only if every step allows it.
func (b *Broker) Handle(ctx context.Context, req Request) Result {
	if req.Profile == "" {
		req.Profile = b.defaultProfile
	}
	if req.Region == "" {
		req.Region = b.defaultRegion
	}

	r := &request{Request: req, id: uuid.NewString(), tool: req.Tool, start: b.now()}
	intent, known := ResolveTool(req.Tool)
	if known {
		r.tool = intent.String()
	}
	r.log = clog.With("req", r.id, "tool", r.tool)
	b.record(ctx, r, &audit.Event{Type: audit.EventRequest})

	res := Result{RequestID: r.id, Profile: req.Profile, Region: req.Region, ExitCode: executor.ExitCodeNone}

	if !known {
		return b.deny(ctx, r, res, CodeUnknownTool, "unknown tool "+quote(req.Tool))
	}
	if strings.TrimSpace(req.Command) == "" {
		return b.deny(ctx, r, res, CodeEmptyCommand, "no command provided")
	}

	match := b.classifier.Classify(req.Command)
	res.Classification = match.Classification
	res.Entry = match.Entry
	r.log.Debug("classified %s (entry %q)", match.Classification, match.Entry)

	decision := policy.Decide(intent, match.Classification)
	if !decision.Allowed() {
		return b.deny(ctx, r, res, decision.Code, decision.Reason)
	}

	args, err := executor.Tokenize(req.Command)
	if err == nil {
		args = stripProgram(args)
		if len(args) == 0 {
			err = executor.ErrInvalidCommand
		}
	}
	if err != nil {
		return b.deny(ctx, r, res, CodeInvalidCommand, err.Error())
	}
	if strings.HasPrefix(args[0], "-") {
		return b.deny(ctx, r, res, CodeInvalidCommand,
			"options before the service are not allowed; use the profile and region fields")
	}

	// Quoting can hide a token boundary from the classifier ("s3 'ls x'"),
	// so the argument vector must classify the same as the text.
	if again := b.classifier.Classify(strings.Join(args, " ")); again.Classification != match.Classification {
		return b.deny(ctx, r, res, CodeInvalidCommand, "quoted arguments change the command's classification")
	}

	b.record(ctx, r, &audit.Event{Type: audit.EventAllow, Entry: match.Entry})

	if intent == policy.WriteIntent {
		if res, ok := b.approve(ctx, r, res); !ok {
			return res
		}
	}

	return b.execute(ctx, r, res, args)
}

// approve passes r through the gate. It returns false with a finished
// Result if the request must stop here.
func (b *Broker) approve(ctx context.Context, r *request, res Result) (Result, bool) {
	if !b.gate.Enabled() {
		return res, true
	}

	r.log.Info("awaiting approval")
	err := b.gate.Await(ctx, approval.Prompt{
		RequestID: r.id,
		Command:   strings.TrimSpace(r.Command),
		Profile:   r.Profile,
		Region:    r.Region,
	})

	switch {
	case err == nil:
		r.log.Info("approved")
		b.record(ctx, r, &audit.Event{Type: audit.EventApprove})
		return res, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.log.Info("canceled while awaiting approval")
		b.record(ctx, r, &audit.Event{Type: audit.EventCancel, Duration: b.now().Sub(r.start)})
		res.Status = StatusCanceled
		res.Reason = "request canceled while awaiting approval"
		return res, false
	case errors.Is(err, approval.ErrTimeout):
		return b.reject(ctx, r, res, CodeApprovalTimeout, err.Error()), false
	default:
		return b.reject(ctx, r, res, CodeApprovalRejected, err.Error()), false
	}
}

func (b *Broker) execute(ctx context.Context, r *request, res Result, args []string) Result {
	r.log.Info("executing aws %s", strings.Join(args, " "))
	resp := b.exec.Execute(ctx, executor.ExecuteRequest{
		Args:    args,
		Profile: r.Profile,
		Region:  r.Region,
		Timeout: b.timeout,
	})

	res.ExitCode = resp.ExitCode
	res.Stdout = resp.Stdout
	res.Stderr = resp.Stderr
	res.TimedOut = resp.TimedOut
	res.Error = resp.Error
	res.Duration = resp.Duration

	ev := &audit.Event{ExitCode: resp.ExitCode, Duration: resp.Duration}
	switch resp.Status {
	case executor.StatusCompleted:
		ev.Type = audit.EventComplete
		if resp.ExitCode == 0 {
			res.Status = StatusOK
		} else {
			res.Status = StatusFailed
		}
	case executor.StatusTimeout:
		ev.Type = audit.EventTimeout
		res.Status = StatusTimeout
	case executor.StatusCanceled:
		ev.Type = audit.EventCancel
		res.Status = StatusCanceled
	default:
		ev.Type = audit.EventComplete
		res.Status = StatusError
	}

	r.log.Info("%s exit=%d in %s", res.Status, resp.ExitCode, resp.Duration)
	b.record(ctx, r, ev)
	return res
}

func (b *Broker) deny(ctx context.Context, r *request, res Result, code, reason string) Result {
	r.log.Info("denied %s: %s", code, reason)
	b.record(ctx, r, &audit.Event{Type: audit.EventDeny, Code: code, Reason: reason})
	res.Status = StatusDenied
	res.Code = code
	res.Reason = reason
	return res
}

func (b *Broker) reject(ctx context.Context, r *request, res Result, code, reason string) Result {
	r.log.Info("rejected %s: %s", code, reason)
	b.record(ctx, r, &audit.Event{Type: audit.EventReject, Code: code, Reason: reason})
	res.Status = StatusDenied
	res.Code = code
	res.Reason = reason
	return res
}

// record fills the request fields of e and hands it to the audit sink.
// Audit failures are logged; they do not change the outcome.
func (b *Broker) record(ctx context.Context, r *request, e *audit.Event) {
	e.Timestamp = b.now()
	e.RequestID = r.id
	e.Tool = r.tool
	e.Profile = r.Profile
	e.Region = r.Region
	e.Cmd = r.Command
	if err := b.audit.Record(context.WithoutCancel(ctx), e); err != nil {
		r.log.Warn("audit %s: %v", e.Type, err)
	}
}

// ListProfiles returns the list_aws_profiles text. It bypasses
// classification and policy.
func (b *Broker) ListProfiles(ctx context.Context) (string, error) {
	list, err := b.profiles.List(ctx)
	if err != nil {
		return "", err
	}
	return profiles.Format(list, b.profiles.ConfigPath()), nil
}

// ProfileCount returns how many profiles are configured, or 0 on error.
func (b *Broker) ProfileCount(ctx context.Context) int {
	list, err := b.profiles.List(ctx)
	if err != nil {
		return 0
	}
	return len(list)
}

func stripProgram(args []string) []string {
	if len(args) > 0 && strings.EqualFold(args[0], "aws") {
		return args[1:]
	}
	return args
}

func quote(s string) string {
	return `"` + s + `"`
}
