package main

import (
	"context"
	"os"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/dao"
	"github.com/fleetops/fleetops/internal/orchestrator/approval"
	"github.com/fleetops/fleetops/internal/orchestrator/auth"
	"github.com/fleetops/fleetops/internal/orchestrator/handler"
	"github.com/fleetops/fleetops/internal/orchestrator/middleware"
	"github.com/fleetops/fleetops/internal/orchestrator/reconcile"
	"github.com/fleetops/fleetops/internal/orchestrator/runnerregistry"
	"github.com/fleetops/fleetops/internal/orchestrator/service"
	"github.com/fleetops/fleetops/internal/orchestrator/template"
	"github.com/fleetops/fleetops/internal/queue"
	"github.com/gin-gonic/gin"
)

func main() {
	config := common.GetConfig()
	logger := common.GetLogger()
	defer logger.Sync()

	if err := dao.InitDB(config.MySQLDSN); err != nil {
		logger.Sugar().Fatalw("db init failed", "err", err)
	}

	taskBroker := queue.NewAsynqTaskBroker(config.RedisAddr, config.RedisPassword)
	defer taskBroker.Close()
	controlBus := queue.NewRedisControlBus(config.RedisAddr, config.RedisPassword)
	defer controlBus.Close()
	resultConsumer := queue.NewAsynqResultConsumer(config.RedisAddr, config.RedisPassword, 8)

	audit := common.NewLogSink(logger)

	jobService := service.NewJobService(taskBroker, controlBus, audit)
	buildService := service.NewBuildService(taskBroker, audit)
	approvalService := service.NewApprovalService(jobService, audit)
	resultProcessor := service.NewResultProcessor(jobService, buildService)

	sweeper := approval.NewSweeper()
	if err := sweeper.Start(); err != nil {
		logger.Sugar().Fatalw("sweeper start failed", "err", err)
	}
	defer sweeper.Stop()

	reconciler := reconcile.NewReconciler(jobService, buildService)
	if err := reconciler.Start(); err != nil {
		logger.Sugar().Fatalw("reconciler start failed", "err", err)
	}
	defer reconciler.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := runnerregistry.NewRegistry()
	go func() {
		if err := registry.ListenHeartbeats(ctx, controlBus); err != nil {
			logger.Sugar().Errorw("heartbeat listener stopped", "err", err)
		}
	}()

	go func() {
		if err := resultConsumer.Run(ctx, resultProcessor.Handle); err != nil {
			logger.Sugar().Errorw("result consumer stopped", "err", err)
		}
	}()
	defer resultConsumer.Shutdown()

	templates, err := template.Load(os.Getenv("FLEETOPS_BUILD_TEMPLATES_PATH"))
	if err != nil {
		logger.Sugar().Fatalw("build template load failed", "err", err)
	}

	jobHandler := handler.NewJobHandler(jobService)
	buildHandler := handler.NewBuildHandler(buildService, templates)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	authHandler := handler.NewAuthHandler(auth.NewStaticAuthenticator())
	runnerHandler := handler.NewRunnerHandler()

	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/v1/auth/login", authHandler.Login)
	r.POST("/v1/runners/register", runnerHandler.Register)

	v1 := r.Group("/v1")
	v1.Use(middleware.JWTAuthMiddleware())
	{
		v1.POST("/jobs/command", jobHandler.CreateCommand)
		v1.POST("/jobs/script", jobHandler.CreateScript)
		v1.POST("/jobs/build", buildHandler.Create)
		v1.GET("/jobs/:id", jobHandler.Get)
		v1.GET("/jobs/:id/tasks", jobHandler.ListTasks)
		v1.POST("/jobs/:id/cancel", jobHandler.Cancel)
		v1.GET("/approvals/:id", approvalHandler.Get)
		v1.POST("/approvals/:id/decide", approvalHandler.Decide)
	}

	logger.Sugar().Infow("orchestrator listening", "addr", config.HTTPAddr)
	if config.CertPath != "" && config.KeyPath != "" {
		if err := r.RunTLS(config.HTTPAddr, config.CertPath, config.KeyPath); err != nil {
			logger.Sugar().Fatalw("server exited", "err", err)
		}
		return
	}
	if err := r.Run(config.HTTPAddr); err != nil {
		logger.Sugar().Fatalw("server exited", "err", err)
	}
}
