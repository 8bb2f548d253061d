package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fleetops/fleetops/internal/cli/client"
	"github.com/fleetops/fleetops/internal/common"
)

// decodeEnvelope reads and unmarshals the standard Response envelope,
// printing any transport or domain-level error and reporting whether out
// was successfully populated.
func decodeEnvelope(resp *http.Response, out any) bool {
	body, err := client.ReadResponseBody(resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return false
	}
	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		fmt.Printf("Error: failed to parse response - %v\n", err)
		return false
	}
	if env.Code != common.SuccessCode {
		fmt.Printf("request failed: %s\n", env.Message)
		return false
	}
	if out == nil || len(env.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		fmt.Printf("Error: failed to parse response data - %v\n", err)
		return false
	}
	return true
}

// printJSON pretty-prints any value the way the CLI reports results.
func printJSON(v any) {
	formatted, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error: failed to format output - %v\n", err)
		return
	}
	fmt.Println(string(formatted))
}
