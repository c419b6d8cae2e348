//go:build e2e

package e2e

import (
	"strings"
	"testing"
)

type callResult struct {
	text  string
	isErr bool
}

func callAsync(t *testing.T, inst *instance, tool, command string) <-chan callResult {
	ch := make(chan callResult, 1)
	go func() {
		text, isErr := inst.call(t, tool, map[string]any{"command": command})
		ch <- callResult{text, isErr}
	}()
	return ch
}

func TestWebApprovalApprove(t *testing.T) {
	inst := startServe(t, serveOptions{approval: true})

	done := callAsync(t, inst, "execute_aws_write_command", "s3 cp ./a s3://bucket/a")
	req := inst.waitPending(t)
	if !strings.Contains(req.Cmd, "s3 cp ./a s3://bucket/a") {
		t.Errorf("pending cmd = %q, want the submitted command", req.Cmd)
	}
	inst.decide(t, "approve", req.ID)

	res := <-done
	if res.isErr {
		t.Fatalf("approved write failed: %s", res.text)
	}
	if res.text != "s3\ncp\n./a\ns3://bucket/a\n" {
		t.Errorf("arguments reaching aws = %q", res.text)
	}
}

func TestWebApprovalDeny(t *testing.T) {
	inst := startServe(t, serveOptions{approval: true, awsBody: "echo ran"})

	done := callAsync(t, inst, "execute_aws_write_command", "ec2 terminate-instances --instance-ids i-123")
	req := inst.waitPending(t)
	inst.decide(t, "deny", req.ID)

	res := <-done
	if !res.isErr || !strings.Contains(res.text, "approval_rejected") {
		t.Errorf("denied write result = %q (IsError %v), want approval_rejected", res.text, res.isErr)
	}
	if strings.Contains(res.text, "ran") {
		t.Error("aws was executed after denial")
	}
}

func TestReadsSkipApproval(t *testing.T) {
	inst := startServe(t, serveOptions{approval: true})

	text, isErr := inst.call(t, "execute_aws_read_command", map[string]any{"command": "sts get-caller-identity"})
	if isErr {
		t.Fatalf("read with approval enabled failed: %s", text)
	}
}
