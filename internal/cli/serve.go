package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"plannr/internal/app"
	"plannr/internal/bot"
	"plannr/internal/service"
)

func newServeCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot with the streak check and periodic reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, open)
		},
	}
}

func runServe(cmd *cobra.Command, open Opener) error {
	return withApp(cmd, open, func(a *app.App) error {
		if err := a.Config.RequireToken(); err != nil {
			return err
		}
		ctx := cmd.Context()

		telegramBot, err := bot.New(a.Config.TelegramToken, a.Planner, a.Reminder, a.Store)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}

		scheduler := service.NewSchedulerService(ctx, a.Config.Location)
		if _, err := scheduler.ScheduleDaily("streak check", a.Config.StreakCheckTime, a.Planner.CheckStreakReset); err != nil {
			return err
		}
		if a.Config.ReportInterval > 0 {
			if _, err := scheduler.ScheduleInterval("daily report", a.Config.ReportInterval, func(ctx context.Context) error {
				jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}); err != nil {
				return err
			}
		}
		scheduler.Start()
		defer scheduler.Stop()

		log.Println("plannr bot started.")
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("bot stopped with error: %w", err)
		}
		log.Println("Shutdown complete.")
		return nil
	})
}
