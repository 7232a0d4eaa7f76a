package main

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	v := getVersion()

	if v == "" {
		t.Fatal("getVersion() returned empty string")
	}

	// Test binaries carry no module version, so this is "dev" unless
	// built with ldflags.
	if v != "dev" && !strings.HasPrefix(v, "v") {
		t.Errorf("getVersion() = %q, want 'dev' or 'vX.Y.Z'", v)
	}
}

func TestGetVersion_Ldflags(t *testing.T) {
	old := version
	defer func() { version = old }()

	version = "v1.2.3"
	if got := getVersion(); got != "v1.2.3" {
		t.Errorf("getVersion() = %q, want v1.2.3", got)
	}
}
