package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goliatone/go-wikiform/pkg/config"
)

func TestSubmitURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(*config.Config)
		want string
	}{
		{
			name: "configured",
			cfg:  func(c *config.Config) { c.Server.SubmitURL = "https://proxy.example.org" },
			want: "https://proxy.example.org",
		},
		{
			name: "own proxy on wildcard address",
			cfg:  func(c *config.Config) { c.Server.Addr = ":3000" },
			want: "http://127.0.0.1:3000",
		},
		{
			name: "own proxy on explicit host",
			cfg:  func(c *config.Config) { c.Server.Addr = "10.0.0.5:8080" },
			want: "http://10.0.0.5:8080",
		},
		{
			name: "proxy disabled",
			cfg:  func(c *config.Config) { c.Server.Proxy = false },
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.cfg(&cfg)
			if got := submitURL(cfg); got != tt.want {
				t.Fatalf("submitURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "wikiform ") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
