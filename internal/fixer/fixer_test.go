package fixer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeMessenger struct {
	reply   string
	err     error
	profile string
	prompt  string
	calls   int
}

func (f *fakeMessenger) Complete(_ context.Context, profile, prompt string) (string, error) {
	f.calls++
	f.profile = profile
	f.prompt = prompt
	return f.reply, f.err
}

func TestSuggest(t *testing.T) {
	m := &fakeMessenger{reply: "```bash\n# list the bucket\naws s3 ls s3://my-bucket --recursive\n```"}
	f := New(m)

	got, err := f.Suggest(context.Background(), Request{
		FailedCommand: "s3 list s3://my-bucket",
		ErrorMessage:  "Invalid choice: 'list'",
		Intent:        "list objects in my bucket",
		Profile:       "dev",
	})
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if got != "s3 ls s3://my-bucket --recursive" {
		t.Errorf("Suggest() = %q", got)
	}
	if m.profile != "dev" {
		t.Errorf("profile = %q, want dev", m.profile)
	}
	for _, want := range []string{"s3 list s3://my-bucket", "Invalid choice: 'list'", "list objects in my bucket"} {
		if !strings.Contains(m.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, m.prompt)
		}
	}
}

func TestSuggest_MissingInput(t *testing.T) {
	m := &fakeMessenger{}
	f := New(m)

	cases := []Request{
		{ErrorMessage: "e", Intent: "i"},
		{FailedCommand: "c", Intent: "i"},
		{FailedCommand: "c", ErrorMessage: "e", Intent: "   "},
	}
	for _, req := range cases {
		if _, err := f.Suggest(context.Background(), req); !errors.Is(err, ErrMissingInput) {
			t.Errorf("Suggest(%+v) error = %v, want ErrMissingInput", req, err)
		}
	}
	if m.calls != 0 {
		t.Errorf("messenger called %d times for invalid input", m.calls)
	}
}

func TestSuggest_MessengerError(t *testing.T) {
	boom := errors.New("access denied")
	f := New(&fakeMessenger{err: boom})

	_, err := f.Suggest(context.Background(), Request{FailedCommand: "c", ErrorMessage: "e", Intent: "i"})
	if !errors.Is(err, boom) {
		t.Errorf("Suggest() error = %v, want %v", err, boom)
	}
}

func TestExtractCommand(t *testing.T) {
	tests := []struct {
		reply string
		want  string
	}{
		{"ec2 describe-instances", "ec2 describe-instances"},
		{"aws ec2 describe-instances --region us-east-1", "ec2 describe-instances --region us-east-1"},
		{"\n\n  # note\n```\ns3 ls\n```", "s3 ls"},
		{"`aws sts get-caller-identity`", "sts get-caller-identity"},
		{"awslogs-like text", "awslogs-like text"},
		{"# only\n# comments", "# only\n# comments"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractCommand(tt.reply); got != tt.want {
			t.Errorf("ExtractCommand(%q) = %q, want %q", tt.reply, got, tt.want)
		}
	}
}

func TestNewBedrockMessenger_Defaults(t *testing.T) {
	m := NewBedrockMessenger(Options{Model: "m"})
	if m.opts.MaxTokens != 1000 {
		t.Errorf("MaxTokens = %d, want 1000", m.opts.MaxTokens)
	}
}
