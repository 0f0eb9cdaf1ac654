package health

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/consensource/consensource-cli/pkg/errors"
)

func TestCheckerRunsInRegistrationOrder(t *testing.T) {
	checker := NewChecker()
	checker.Register("validator", func(ctx context.Context) error { return nil })
	checker.Register("keystore", func(ctx context.Context) error {
		return errors.New("key file missing")
	})

	checks := checker.Run(context.Background())
	if len(checks) != 2 {
		t.Fatalf("checks: %d", len(checks))
	}
	if checks[0].Name != "validator" || checks[0].Status != StatusUp {
		t.Errorf("check 0: %+v", checks[0])
	}
	if checks[1].Name != "keystore" || checks[1].Status != StatusDown {
		t.Errorf("check 1: %+v", checks[1])
	}
	if checks[1].Message != "key file missing" {
		t.Errorf("message: %q", checks[1].Message)
	}
	if checks[0].LastChecked.IsZero() {
		t.Error("LastChecked not set")
	}
}

func TestRegisterReplacesExistingCheck(t *testing.T) {
	checker := NewChecker()
	checker.Register("validator", func(ctx context.Context) error {
		return errors.New("first")
	})
	checker.Register("validator", func(ctx context.Context) error { return nil })

	checks := checker.Run(context.Background())
	if len(checks) != 1 {
		t.Fatalf("checks: %d", len(checks))
	}
	if checks[0].Status != StatusUp {
		t.Errorf("status: %v", checks[0].Status)
	}
}

func TestCheckJSON(t *testing.T) {
	checker := NewChecker()
	checker.Register("validator", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	out, err := json.Marshal(checker.Run(context.Background()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"name":"validator"`, `"status":"DOWN"`, `"error":"connection refused"`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}
