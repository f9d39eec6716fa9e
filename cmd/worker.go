/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ecostore/apiserver/internal/events"
	"github.com/ecostore/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

// workerCmd groups background consumers.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background workers",
}

var workerAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Log account events from the message queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer func() {
			_ = queue.Close()
		}()

		logger.WithField("channel", cfg.MQ.EventsChannel).Info("audit worker started")
		if err := queue.Subscribe(ctx, cfg.MQ.EventsChannel, events.AuditHandler(logger)); err != nil && ctx.Err() == nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.AddCommand(workerAuditCmd)
}
