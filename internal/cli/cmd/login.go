package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fleetops/fleetops/internal/cli/client"
	"github.com/fleetops/fleetops/internal/orchestrator/api"
	"github.com/spf13/cobra"
)

// NewLoginCommand authenticates a principal and stashes the bearer token
// for subsequent commands in this session.
func NewLoginCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and cache a bearer token",
		Run:   runLogin,
	}
	c.Flags().StringP("principal-id", "u", "", "principal id (required)")
	c.Flags().StringP("principal-kind", "k", "user", "principal kind")
	c.Flags().StringP("password", "p", "", "password (required)")
	c.MarkFlagRequired("principal-id")
	c.MarkFlagRequired("password")
	return c
}

func runLogin(cmd *cobra.Command, args []string) {
	principalID, _ := cmd.Flags().GetString("principal-id")
	principalKind, _ := cmd.Flags().GetString("principal-kind")
	password, _ := cmd.Flags().GetString("password")

	body, _ := json.Marshal(api.LoginRequest{PrincipalID: principalID, PrincipalKind: principalKind, Password: password})
	resp, err := client.SendRequest(http.MethodPost, "/v1/auth/login", bytes.NewBuffer(body))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var data api.LoginResponse
	if !decodeEnvelope(resp, &data) {
		return
	}
	client.SaveToken(data.Token)
	fmt.Println("login successful")
}
