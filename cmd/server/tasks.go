package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository/memory"
)

func newConsumeCmd() *cobra.Command {
	var logDir string
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Append completion reports from RabbitMQ to <log-dir>/reports.log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			c := &queue.ReportConsumer{URL: cfg.AMQPURL, Queue: cfg.ReportQueue, LogDir: logDir}
			log.Printf("consuming %s", cfg.ReportQueue)
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logDir, "log-dir", "logs", "directory for reports.log")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded MySQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.Store != config.StoreMySQL {
				return fmt.Errorf("migrate needs STORE=mysql, got %q", cfg.Store)
			}
			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return err
			}
			defer db.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			log.Printf("applied %d schema statements", len(database.Statements()))
			return nil
		},
	}
}

func newSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "Print the bookable slot grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := config.LoadCatalog()
			out := cmd.OutOrStdout()
			for i, s := range cat.Generate() {
				fmt.Fprintf(out, "%d\t%s\n", i+1, s)
			}
			return nil
		},
	}
}

// seedDemo loads one location with three tables, two waiters and an admin.
// Staff passwords are "changeme".
func seedDemo(ctx context.Context, st *memory.Store, cost int) error {
	st.AddLocation(model.Location{ID: "loc-demo", Name: "Harbour", Address: "1 Harbour Street"})
	for i, capacity := range []int{2, 4, 6} {
		n := fmt.Sprint(i + 1)
		st.AddTable(model.Table{ID: "loc-demo-t" + n, LocationID: "loc-demo", TableNumber: n, Capacity: capacity})
	}
	staff := []model.User{
		{Email: "waiter1@example.com", FirstName: "Wanda", Role: model.RoleWaiter, LocationID: "loc-demo"},
		{Email: "waiter2@example.com", FirstName: "Walt", Role: model.RoleWaiter, LocationID: "loc-demo"},
		{Email: "admin@example.com", FirstName: "Ada", Role: model.RoleAdmin},
	}
	for i := range staff {
		if err := st.Create(ctx, &staff[i], "changeme", cost); err != nil {
			return err
		}
	}
	return nil
}
