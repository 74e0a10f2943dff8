package cli

import (
	"bytes"
	"context"
	"testing"
)

func TestArgumentErrorsFailBeforeBootstrap(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown migrate direction", []string{"migrate", "sideways"}},
		{"migrate without direction", []string{"migrate"}},
		{"bad reference time", []string{"batch", "run", "--at", "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(tt.args)
			t.Cleanup(func() { batchAt = "" })

			if err := rootCmd.ExecuteContext(context.Background()); err == nil {
				t.Fatalf("expected an error for %v", tt.args)
			}
		})
	}
}
