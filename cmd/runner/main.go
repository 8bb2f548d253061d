package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/queue"
	"github.com/fleetops/fleetops/internal/runner/build"
	"github.com/fleetops/fleetops/internal/runner/heartbeat"
	"github.com/fleetops/fleetops/internal/runner/pool"
	"github.com/fleetops/fleetops/internal/runner/registration"
)

func main() {
	config := common.GetConfig()
	logger := common.GetLogger()
	defer logger.Sync()

	name := os.Getenv("FLEETOPS_RUNNER_NAME")
	if name == "" {
		logger.Sugar().Fatal("FLEETOPS_RUNNER_NAME is required")
	}
	// FLEETOPS_RUNNER_QUEUES is a comma-separated list of capability:env
	// pairs this runner serves, e.g. "general:prod,general:dev,build:build".
	// Command and script tasks are published under capability "general" and
	// the target host's environment; build tasks under the job's required
	// capability and the env label "build".
	pairs := strings.Split(os.Getenv("FLEETOPS_RUNNER_QUEUES"), ",")
	queues := map[string]int{}
	capabilities := map[string]bool{}
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		capabilities[parts[0]] = true
		queues[queue.TaskQueueName(parts[0], parts[1])] = 1
	}
	if len(queues) == 0 {
		logger.Sugar().Fatal("FLEETOPS_RUNNER_QUEUES must name at least one capability:env pair")
	}
	capabilityList := make([]string, 0, len(capabilities))
	for c := range capabilities {
		capabilityList = append(capabilityList, c)
	}

	orchestratorURL := os.Getenv("FLEETOPS_ORCHESTRATOR_URL")
	if orchestratorURL == "" {
		orchestratorURL = "http://localhost:8080"
	}
	maxConcurrent := 4
	if v := os.Getenv("FLEETOPS_RUNNER_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxConcurrent = n
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runnerID, err := registration.Register(ctx, orchestratorURL, name, capabilityList, maxConcurrent)
	if err != nil {
		logger.Sugar().Fatalw("runner registration failed", "err", err)
	}
	logger.Sugar().Infow("runner registered", "runner_id", runnerID, "capabilities", capabilityList)

	taskBroker := queue.NewAsynqTaskBroker(config.RedisAddr, config.RedisPassword)
	defer taskBroker.Close()
	taskConsumer := queue.NewAsynqTaskConsumer(config.RedisAddr, config.RedisPassword, maxConcurrent)
	controlBus := queue.NewRedisControlBus(config.RedisAddr, config.RedisPassword)
	defer controlBus.Close()

	var buildExecutor *build.Executor
	if capabilities["build"] {
		buildExecutor, err = build.NewExecutor()
		if err != nil {
			logger.Sugar().Errorw("build executor unavailable, build-type tasks will fail fast", "err", err)
		}
	}

	p := pool.New(taskConsumer, taskBroker, controlBus, buildExecutor)

	hb := heartbeat.New(runnerID, controlBus, config.HeartbeatInterval)
	go hb.Start(ctx)

	go func() {
		if err := p.Run(ctx, queues); err != nil {
			logger.Sugar().Errorw("worker pool stopped", "err", err)
		}
	}()
	defer p.Shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Sugar().Info("shutting down runner")
}
