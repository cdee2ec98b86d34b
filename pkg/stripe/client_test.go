package stripe

import (
	"context"
	"testing"

	"github.com/marchelocal/marchelocal-backend/pkg/config"
)

func TestNewClientValidatesKeyAgainstEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StripeConfig
		wantErr bool
	}{
		{name: "test key in test env", cfg: config.StripeConfig{APIKey: "sk_test_123", Env: "test"}},
		{name: "restricted test key", cfg: config.StripeConfig{APIKey: "rk_test_123", Env: "test"}},
		{name: "live key in live env", cfg: config.StripeConfig{APIKey: "sk_live_123", Env: "live"}},
		{name: "empty env defaults to test", cfg: config.StripeConfig{APIKey: "sk_test_123"}},
		{name: "live key in test env", cfg: config.StripeConfig{APIKey: "sk_live_123", Env: "test"}, wantErr: true},
		{name: "test key in live env", cfg: config.StripeConfig{APIKey: "sk_test_123", Env: "live"}, wantErr: true},
		{name: "missing key", cfg: config.StripeConfig{Env: "test"}, wantErr: true},
		{name: "unknown env", cfg: config.StripeConfig{APIKey: "sk_test_123", Env: "sandbox"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tc.cfg, nil)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.API() == nil {
				t.Fatal("expected initialized api client")
			}
		})
	}
}
