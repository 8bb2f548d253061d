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

// NewApprovalCommand groups the read and decide operations for a job's
// approval gate (spec §4.5).
func NewApprovalCommand() *cobra.Command {
	c := &cobra.Command{Use: "approval", Short: "Inspect or decide an approval request"}
	c.AddCommand(newApprovalGetCommand(), newApprovalDecideCommand())
	return c
}

func newApprovalGetCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "get",
		Short: "Show an approval request's state",
		Run:   runApprovalGet,
	}
	c.Flags().StringP("id", "i", "", "approval request id (required)")
	c.MarkFlagRequired("id")
	return c
}

func runApprovalGet(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	resp, err := client.SendRequest(http.MethodGet, "/v1/approvals/"+id, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	var ar api.ApprovalResponse
	if !decodeEnvelope(resp, &ar) {
		return
	}
	printJSON(ar)
}

func newApprovalDecideCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "decide",
		Short: "Approve or reject an approval request",
		Run:   runApprovalDecide,
	}
	c.Flags().StringP("id", "i", "", "approval request id (required)")
	c.Flags().String("decision", "", "approve|reject (required)")
	c.Flags().String("comment", "", "optional comment")
	c.MarkFlagRequired("id")
	c.MarkFlagRequired("decision")
	return c
}

func runApprovalDecide(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	decision, _ := cmd.Flags().GetString("decision")
	comment, _ := cmd.Flags().GetString("comment")

	body, _ := json.Marshal(api.DecideApprovalRequest{Decision: decision, Comment: comment})
	resp, err := client.SendRequest(http.MethodPost, "/v1/approvals/"+id+"/decide", bytes.NewBuffer(body))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	var ar api.ApprovalResponse
	if !decodeEnvelope(resp, &ar) {
		return
	}
	printJSON(ar)
}
