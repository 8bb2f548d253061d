package cmd

import (
	"fmt"
	"net/http"

	"github.com/fleetops/fleetops/internal/cli/client"
	"github.com/fleetops/fleetops/internal/orchestrator/api"
	"github.com/spf13/cobra"
)

// NewStatusCommand fetches a job's current aggregate state.
func NewStatusCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "Show a job's status",
		Run:   runStatus,
	}
	c.Flags().StringP("id", "i", "", "job id (required)")
	c.MarkFlagRequired("id")
	return c
}

func runStatus(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	resp, err := client.SendRequest(http.MethodGet, "/v1/jobs/"+id, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	var job api.JobResponse
	if !decodeEnvelope(resp, &job) {
		return
	}
	printJSON(job)
}

// NewTasksCommand lists the per-host task breakdown of a job.
func NewTasksCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "tasks",
		Short: "List a job's per-host tasks",
		Run:   runTasks,
	}
	c.Flags().StringP("id", "i", "", "job id (required)")
	c.MarkFlagRequired("id")
	return c
}

func runTasks(cmd *cobra.Command, args []string) {
	id, _ := cmd.Flags().GetString("id")
	resp, err := client.SendRequest(http.MethodGet, "/v1/jobs/"+id+"/tasks", nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	var tasks []api.TaskResponse
	if !decodeEnvelope(resp, &tasks) {
		return
	}
	printJSON(tasks)
}
