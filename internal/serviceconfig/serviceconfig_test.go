package serviceconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "carconnectivity.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestProbeMissingFile(t *testing.T) {
	res := Probe(filepath.Join(t.TempDir(), "carconnectivity.json"))
	if !res.Missing {
		t.Fatalf("expected Missing, got %+v", res)
	}
	if res.OK() {
		t.Fatalf("missing file must not be OK")
	}
}

func TestProbeMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"carConnectivity": `)
	res := Probe(path)
	if !res.Malformed {
		t.Fatalf("expected Malformed, got %+v", res)
	}
	if res.Err == nil {
		t.Fatalf("expected parse error to be kept")
	}
}

func TestProbeWellFormed(t *testing.T) {
	path := writeConfig(t, `{
  "carConnectivity": {
    "log_level": "info",
    "connectors": [
      {"type": "audi", "config": {"interval": 300, "username": "user@example.com", "password": "secret"}}
    ],
    "plugins": [
      {"type": "webui", "config": {"port": 4000, "username": "admin", "password": "secret"}},
      {"type": "mqtt", "config": {"broker": "192.168.0.10"}}
    ]
  }
}`)
	res := Probe(path)
	if !res.OK() {
		t.Fatalf("expected OK, got %+v", res)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestProbeWarnsOnStructuralGaps(t *testing.T) {
	path := writeConfig(t, `{"something_else": true}`)
	res := Probe(path)
	if !res.OK() {
		t.Fatalf("well-formed JSON must be OK regardless of shape: %+v", res)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a warning about the missing carConnectivity object")
	}

	path = writeConfig(t, `{"carConnectivity": {"connectors": [{"config": {}}], "plugins": []}}`)
	res = Probe(path)
	if !res.OK() {
		t.Fatalf("expected OK, got %+v", res)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected warnings for untyped connector")
	}
}
