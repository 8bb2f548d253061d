package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fleetops/fleetops/internal/cli/client"
	"github.com/fleetops/fleetops/internal/orchestrator/api"
	"github.com/spf13/cobra"
)

// NewSubmitCommand groups the three job-submission shapes under one
// parent, matching spec §4.1/§4.4's three job types.
func NewSubmitCommand() *cobra.Command {
	c := &cobra.Command{Use: "submit", Short: "Submit a job"}
	c.AddCommand(newSubmitCommandJob(), newSubmitScriptJob(), newSubmitBuildJob())
	return c
}

func targetFlags(c *cobra.Command) {
	c.Flags().StringSlice("hosts", nil, "target host IDs")
	c.Flags().StringSlice("groups", nil, "target group IDs")
	c.Flags().Int("concurrency", 0, "concurrent execution limit (0 = unbounded)")
	c.Flags().Int("timeout", 0, "per-task timeout in seconds")
	c.Flags().Int("retries", 0, "max retries on retryable failures")
	c.Flags().StringSlice("tags", nil, "free-form tags")
	c.Flags().String("idempotency-key", "", "dedupe key for safe resubmission")
	c.Flags().String("execute-user", "", "user to run as on the target host")
}

func newSubmitCommandJob() *cobra.Command {
	c := &cobra.Command{
		Use:   "command",
		Short: "Run a shell command across a set of hosts",
		Run:   runSubmitCommand,
	}
	c.Flags().String("name", "", "job name (required)")
	c.Flags().String("command", "", "shell command to run (required)")
	targetFlags(c)
	c.MarkFlagRequired("name")
	c.MarkFlagRequired("command")
	return c
}

func runSubmitCommand(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	command, _ := cmd.Flags().GetString("command")
	req := api.CreateCommandJobRequest{
		Name:            name,
		Command:         command,
		TargetHosts:     mustStringSlice(cmd, "hosts"),
		TargetGroups:    mustStringSlice(cmd, "groups"),
		ExecuteUser:     mustString(cmd, "execute-user"),
		ConcurrentLimit: mustInt(cmd, "concurrency"),
		TimeoutSecs:     mustInt(cmd, "timeout"),
		RetryTimes:      mustInt(cmd, "retries"),
		Tags:            mustStringSlice(cmd, "tags"),
		IdempotencyKey:  mustString(cmd, "idempotency-key"),
	}
	postJob("/v1/jobs/command", req)
}

func newSubmitScriptJob() *cobra.Command {
	c := &cobra.Command{
		Use:   "script",
		Short: "Run a script across a set of hosts",
		Run:   runSubmitScript,
	}
	c.Flags().String("name", "", "job name (required)")
	c.Flags().String("script", "", "inline script body (required)")
	c.Flags().String("script-path", "", "remote path to stage the script at")
	targetFlags(c)
	c.MarkFlagRequired("name")
	c.MarkFlagRequired("script")
	return c
}

func runSubmitScript(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	script, _ := cmd.Flags().GetString("script")
	req := api.CreateScriptJobRequest{
		Name:            name,
		Script:          script,
		ScriptPath:      mustString(cmd, "script-path"),
		TargetHosts:     mustStringSlice(cmd, "hosts"),
		TargetGroups:    mustStringSlice(cmd, "groups"),
		ExecuteUser:     mustString(cmd, "execute-user"),
		ConcurrentLimit: mustInt(cmd, "concurrency"),
		TimeoutSecs:     mustInt(cmd, "timeout"),
		RetryTimes:      mustInt(cmd, "retries"),
		Tags:            mustStringSlice(cmd, "tags"),
		IdempotencyKey:  mustString(cmd, "idempotency-key"),
	}
	postJob("/v1/jobs/script", req)
}

func newSubmitBuildJob() *cobra.Command {
	c := &cobra.Command{
		Use:   "build",
		Short: "Run a build pipeline (clone/install/test/build/package)",
		Run:   runSubmitBuild,
	}
	c.Flags().String("name", "", "job name (required)")
	c.Flags().String("project", "", "project name (required)")
	c.Flags().String("repo", "", "repository URL (required)")
	c.Flags().String("branch", "", "branch")
	c.Flags().String("commit", "", "commit SHA")
	c.Flags().String("build-type", "", "node|java|rust|frontend|other (required)")
	c.Flags().String("capability", "", "required runner capability (required)")
	c.Flags().StringArray("step", nil, "type:command[:continue] — repeatable, in order (required)")
	c.Flags().Int("timeout", 0, "timeout in seconds, stored on the job (each build step runs under a fixed 30-minute limit)")
	c.Flags().String("idempotency-key", "", "dedupe key for safe resubmission")
	c.MarkFlagRequired("name")
	c.MarkFlagRequired("project")
	c.MarkFlagRequired("repo")
	c.MarkFlagRequired("build-type")
	c.MarkFlagRequired("capability")
	c.MarkFlagRequired("step")
	return c
}

func runSubmitBuild(cmd *cobra.Command, args []string) {
	rawSteps, _ := cmd.Flags().GetStringArray("step")
	steps := make([]api.BuildStepInput, 0, len(rawSteps))
	for _, raw := range rawSteps {
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) < 2 {
			fmt.Printf("Error: malformed --step %q, want type:command[:continue]\n", raw)
			return
		}
		steps = append(steps, api.BuildStepInput{
			StepType:          parts[0],
			Command:           parts[1],
			ContinueOnFailure: len(parts) == 3 && parts[2] == "continue",
		})
	}
	req := api.CreateBuildJobRequest{
		Name:               mustString(cmd, "name"),
		ProjectName:        mustString(cmd, "project"),
		RepositoryURL:      mustString(cmd, "repo"),
		Branch:             mustString(cmd, "branch"),
		CommitSHA:          mustString(cmd, "commit"),
		BuildType:          mustString(cmd, "build-type"),
		RequiredCapability: mustString(cmd, "capability"),
		Steps:              steps,
		TimeoutSecs:        mustInt(cmd, "timeout"),
		IdempotencyKey:      mustString(cmd, "idempotency-key"),
	}
	postJob("/v1/jobs/build", req)
}

func postJob(path string, req any) {
	body, _ := json.Marshal(req)
	resp, err := client.SendRequest(http.MethodPost, path, bytes.NewBuffer(body))
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

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func mustStringSlice(cmd *cobra.Command, name string) []string {
	v, _ := cmd.Flags().GetStringSlice(name)
	return v
}
