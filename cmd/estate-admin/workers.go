// cmd/estate-admin/workers.go
package main

import (
	"fmt"

	"estate-admin/internal/common/camunda"
	"estate-admin/internal/common/config"
	"estate-admin/internal/common/logger"

	es "estate-admin/internal/workers/communication/email-send"
	lc "estate-admin/internal/workers/crm/lead-create"
	lus "estate-admin/internal/workers/crm/lead-update-status"
	rus "estate-admin/internal/workers/reports/report-update-status"
	vd "estate-admin/internal/workers/verification/verification-decide"
	vr "estate-admin/internal/workers/verification/verification-remind"
)

type jobWorker interface {
	Register() error
	Close()
	GetTaskType() string
	IsEnabled() bool
}

// buildWorkers wires one handler per job type onto the domain services.
func buildWorkers(cfg *config.Config, zc *camunda.Client, svc domainServices, log logger.Logger) ([]jobWorker, error) {
	var workers []jobWorker
	add := func(w jobWorker, err error) error {
		if err != nil {
			return err
		}
		workers = append(workers, w)
		return nil
	}

	steps := []func() error{
		func() error {
			return add(vd.NewHandler(vd.HandlerOptions{AppConfig: cfg, Camunda: zc, Decider: svc.verifications, Logger: log}))
		},
		func() error {
			return add(vr.NewHandler(vr.HandlerOptions{AppConfig: cfg, Camunda: zc, Reminder: svc.verifications, Logger: log}))
		},
		func() error {
			return add(rus.NewHandler(rus.HandlerOptions{AppConfig: cfg, Camunda: zc, Reports: svc.reports, Logger: log}))
		},
		func() error {
			return add(lc.NewHandler(lc.HandlerOptions{AppConfig: cfg, Camunda: zc, Creator: svc.leads, Logger: log}))
		},
		func() error {
			return add(lus.NewHandler(lus.HandlerOptions{AppConfig: cfg, Camunda: zc, Leads: svc.leads, Logger: log}))
		},
		func() error {
			return add(es.NewHandler(es.HandlerOptions{AppConfig: cfg, Camunda: zc, Mailer: svc.messages, Logger: log}))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return workers, nil
}

func registerWorkers(workers []jobWorker, log logger.Logger) error {
	registered := 0
	for _, w := range workers {
		if err := w.Register(); err != nil {
			return fmt.Errorf("register %s: %w", w.GetTaskType(), err)
		}
		if w.IsEnabled() {
			registered++
		}
	}
	log.Info("workers registered", map[string]interface{}{
		"registered": registered,
		"total":      len(workers),
	})
	return nil
}

func closeWorkers(workers []jobWorker) {
	for _, w := range workers {
		w.Close()
	}
}
