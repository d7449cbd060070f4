package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseCLIFlagsDefaults(t *testing.T) {
	opts, err := parseCLIFlags(nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if opts.configPath != "config.toml" {
		t.Fatalf("unexpected config path: %q", opts.configPath)
	}
	if opts.checkOnly || opts.showVersion {
		t.Fatalf("unexpected flags: %+v", opts)
	}
}

func TestParseCLIFlagsExplicit(t *testing.T) {
	opts, err := parseCLIFlags([]string{"-config", "/etc/mod-hub.toml", "-check-config"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if opts.configPath != "/etc/mod-hub.toml" {
		t.Fatalf("unexpected config path: %q", opts.configPath)
	}
	if !opts.checkOnly {
		t.Fatal("check-config flag lost")
	}
}

func TestParseCLIFlagsEnvFallback(t *testing.T) {
	t.Setenv("MOD_HUB_CONFIG", "/srv/hub/config.toml")

	opts, err := parseCLIFlags(nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if opts.configPath != "/srv/hub/config.toml" {
		t.Fatalf("env fallback not applied: %q", opts.configPath)
	}

	// 显式标志优先于环境变量。
	opts, err = parseCLIFlags([]string{"-config", "./local.toml"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if opts.configPath != "./local.toml" {
		t.Fatalf("flag should win over env: %q", opts.configPath)
	}
}

func TestParseCLIFlagsUnknownFlag(t *testing.T) {
	if _, err := parseCLIFlags([]string{"-bogus"}); err == nil {
		t.Fatal("unknown flag accepted")
	}
}

func TestRunShowVersion(t *testing.T) {
	var out bytes.Buffer
	origOut := stdOut
	stdOut = &out
	defer func() { stdOut = origOut }()

	if code := run(cliOptions{showVersion: true}); code != 0 {
		t.Fatalf("unexpected exit code: %d", code)
	}
	if !strings.Contains(out.String(), "mod-hub") {
		t.Fatalf("version output missing program name: %q", out.String())
	}
}
