package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// registerRequest mirrors api.RegisterRunnerRequest without importing the
// orchestrator's HTTP package from the runner binary.
type registerRequest struct {
	Name              string   `json:"name"`
	Capabilities      []string `json:"capabilities"`
	MaxConcurrentJobs int      `json:"max_concurrent_jobs"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Register posts this runner's declared capabilities to the orchestrator
// once at startup and returns the runner ID assigned to it (spec §3.7),
// the same one-shot HTTP registration shape as the SPLAI worker's
// registration package, adapted to this module's response envelope.
func Register(ctx context.Context, baseURL, name string, capabilities []string, maxConcurrentJobs int) (string, error) {
	payload := registerRequest{Name: name, Capabilities: capabilities, MaxConcurrentJobs: maxConcurrentJobs}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/v1/runners/register", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("register runner failed with status %s", resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	if env.Code != 0 {
		return "", fmt.Errorf("register runner rejected: %s", env.Message)
	}
	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", err
	}
	return data.ID, nil
}
