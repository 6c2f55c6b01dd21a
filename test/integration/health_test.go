package integration

import (
	"net/http"
	"testing"
)

func TestHealthz(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	decodeJSON(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestRequestIDEchoed(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, testEnv.BaseURL()+"/healthz", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("X-Request-ID", "integration-42")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "integration-42" {
		t.Errorf("X-Request-ID = %q, want integration-42", got)
	}
}
