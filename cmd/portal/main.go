package main

import (
	"fmt"
	"os"

	"github.com/mvargas/muni-machinery/internal/auth"
	"github.com/mvargas/muni-machinery/internal/config"
	"github.com/mvargas/muni-machinery/internal/db"
	"github.com/mvargas/muni-machinery/internal/excel"
	httphandler "github.com/mvargas/muni-machinery/internal/http"
	"github.com/mvargas/muni-machinery/internal/http/middleware"
	"github.com/mvargas/muni-machinery/internal/logger"
	"github.com/mvargas/muni-machinery/internal/pdf"
	"github.com/mvargas/muni-machinery/internal/repository"
	"github.com/mvargas/muni-machinery/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	registryRepo := repository.NewRegistryRepository(database)
	reportRepo := repository.NewReportRepository(database)
	roleRequestRepo := repository.NewRoleRequestRepository(database)
	auditRepo := repository.NewAuditRepository(database)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	excelGenerator := excel.NewGenerator()

	reportService := service.NewReportService(reportRepo, registryRepo, registryRepo, auditRepo, excelGenerator, pdfGenerator)
	registryService := service.NewRegistryService(registryRepo, auditRepo)
	roleRequestService := service.NewRoleRequestService(roleRequestRepo, auditRepo)
	auditService := service.NewAuditService(auditRepo)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(reportService, registryService, roleRequestService, auditService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting machinery portal service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
