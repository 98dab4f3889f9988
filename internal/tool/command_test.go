package tool

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	var got []string
	commands := map[string]*Command{
		"ok": {Name: "ok", Description: "succeeds", Fn: func(_ context.Context, args []string) error {
			got = args
			return nil
		}},
		"bad": {Name: "bad", Description: "fails", Help: "bad help", Fn: func(context.Context, []string) error {
			return fmt.Errorf("%w: missing file", ErrUsage)
		}},
	}

	var stderr bytes.Buffer
	if code := Run(context.Background(), &stderr, commands, []string{"ok", "a", "b"}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if strings.Join(got, " ") != "a b" {
		t.Fatalf("args = %v", got)
	}

	if code := Run(context.Background(), &stderr, commands, []string{"bad"}); code != 1 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(stderr.String(), "bad help") {
		t.Fatalf("usage error should print help: %q", stderr.String())
	}

	stderr.Reset()
	if code := Run(context.Background(), &stderr, commands, []string{"nope"}); code != 1 {
		t.Fatalf("exit code %d", code)
	}
	out := stderr.String()
	if !strings.Contains(out, `command "nope" not found`) || strings.Index(out, "bad") > strings.Index(out, "ok ") {
		t.Fatalf("unexpected usage output %q", out)
	}

	if code := Run(context.Background(), &stderr, commands, nil); code != 1 {
		t.Fatalf("exit code %d", code)
	}
}
