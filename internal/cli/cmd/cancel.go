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

// NewCancelCommand cancels a whole job, or a subset of its tasks when
// --task-ids is given (spec §4.1).
func NewCancelCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a job or a subset of its tasks",
		Run:   runCancel,
	}
	c.Flags().StringP("id", "i", "", "job id (required)")
	c.Flags().StringSlice("task-ids", nil, "scope the cancel to these task IDs")
	c.Flags().String("reason", "", "reason recorded on the audit trail")
	c.MarkFlagRequired("id")
	return c
}

func runCancel(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	taskIDs, _ := cmd.Flags().GetStringSlice("task-ids")
	reason, _ := cmd.Flags().GetString("reason")

	body, _ := json.Marshal(api.CancelJobRequest{TaskIDs: taskIDs, Reason: reason})
	resp, err := client.SendRequest(http.MethodPost, "/v1/jobs/"+id+"/cancel", bytes.NewBuffer(body))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if !decodeEnvelope(resp, nil) {
		return
	}
	fmt.Println("cancel accepted")
}
