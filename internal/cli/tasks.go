package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"plannr/internal/app"
	"plannr/internal/model"
	"plannr/internal/service"
)

func newLoginCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Start a session (demo_user has a sample profile)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dob, _ := cmd.Flags().GetString("dob")
			return withApp(cmd, open, func(a *app.App) error {
				var (
					user *model.User
					err  error
				)
				if dob != "" {
					user, err = a.Planner.Register(cmd.Context(), args[0], "", dob)
				} else {
					user, err = a.Planner.Login(cmd.Context(), args[0], "")
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (streak %d, level %d, %d done)\n",
					user.Username, user.Streak, user.Achievements, user.TasksCompleted)
				return nil
			})
		},
	}
	cmd.Flags().String("dob", "", "Register with a date of birth (YYYY-MM-DD)")
	return cmd
}

func newTodayCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List open tasks due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(a *app.App) error {
				printTasks(cmd.OutOrStdout(), a.Planner.TasksForToday(), "Nothing left for today.")
				return nil
			})
		},
	}
}

func newUpcomingCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List open tasks due after today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, _ := cmd.Flags().GetInt("days")
			return withApp(cmd, open, func(a *app.App) error {
				out := cmd.OutOrStdout()
				if days <= 0 {
					printTasks(out, a.Planner.TasksForUpcoming(), "No upcoming tasks.")
					return nil
				}
				week := a.Planner.TasksForNextNDays(days)
				today := a.Planner.Today()
				for i := 0; i < days; i++ {
					d := today.AddDays(i)
					fmt.Fprintf(out, "%s\n", d.In(a.Planner.Now().Location()).Format("Mon 2006-01-02"))
					printTasks(out, week[d], "  -")
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("days", 0, "Group the next N days, today included")
	return cmd
}

func newAddCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task, or update the task with the same title and category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			rawCategory, _ := flags.GetString("category")
			rawDue, _ := flags.GetString("due")
			rawImportance, _ := flags.GetString("importance")
			rawDays, _ := flags.GetString("days")
			description, _ := flags.GetString("description")

			category, ok := model.ParseCategory(rawCategory)
			if !ok {
				return fmt.Errorf("unknown category %q", rawCategory)
			}
			importance, ok := model.ParseImportance(rawImportance)
			if !ok {
				return fmt.Errorf("unknown importance %q", rawImportance)
			}
			days, err := service.ParseWeekdays(rawDays)
			if err != nil {
				return err
			}

			return withApp(cmd, open, func(a *app.App) error {
				input := service.TaskInput{
					Title:       strings.Join(args, " "),
					Description: description,
					Category:    category,
					Importance:  importance,
					Days:        days,
				}
				if rawDue != "" {
					d, err := service.ParseDay(rawDue, a.Planner.Today())
					if err != nil {
						return err
					}
					input.DueDate = d.In(a.Planner.Now().Location())
				}
				task, err := a.Planner.AddOrUpdate(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", taskLine(task))
				return nil
			})
		},
	}
	cmd.Flags().StringP("category", "c", string(model.CategoryPersonal), "Personal, Work, Home, Friends or Family")
	cmd.Flags().String("due", "", "Due day: today, tomorrow or YYYY-MM-DD (default today)")
	cmd.Flags().StringP("importance", "i", "", "low, medium or high")
	cmd.Flags().String("days", "", "Weekdays, e.g. mon,wed or 1,3")
	cmd.Flags().StringP("description", "d", "", "Description")
	return cmd
}

func newDoneCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Complete a task by id or id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(a *app.App) error {
				task, err := a.Planner.Resolve(args[0])
				if err != nil {
					return err
				}
				done, err := a.Planner.Complete(cmd.Context(), task.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !done {
					fmt.Fprintf(out, "Already completed: %s\n", task.Title)
					return nil
				}
				fmt.Fprintf(out, "Completed: %s\n", task.Title)
				if user := a.Planner.CurrentUser(); user != nil {
					fmt.Fprintf(out, "Streak %d, level %d, %d done\n", user.Streak, user.Achievements, user.TasksCompleted)
				}
				return nil
			})
		},
	}
}

func newStatsCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show streak, level and completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(a *app.App) error {
				printStats(cmd.OutOrStdout(), a.Planner.Stats())
				return nil
			})
		},
	}
}

func newClearCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			return withApp(cmd, open, func(a *app.App) error {
				if err := a.Planner.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All data cleared.")
				return nil
			})
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm deletion")
	return cmd
}

func printTasks(w io.Writer, tasks []model.Task, empty string) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "  %s\n", taskLine(t))
	}
}

func taskLine(t model.Task) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s  %-8s  %s", mark, service.ShortID(t.ID), t.DueDay(), t.Category, t.Title)
	if t.Importance != model.ImportanceNone {
		line += fmt.Sprintf(" (%s)", t.Importance)
	}
	return line
}

func printStats(w io.Writer, st service.Stats) {
	fmt.Fprintf(w, "Streak:      %d day(s)\n", st.Streak)
	fmt.Fprintf(w, "Level:       %d (%d/%d, %d%%)\n", st.Level.Level, st.Level.Completed, st.Level.Next, st.Level.Percent)
	c := st.Completion
	fmt.Fprintf(w, "Completion:  %d of %d (%d%%), %d in progress\n", c.Completed, c.Total, c.Percent, c.InProgress)
	fmt.Fprintf(w, "Last 7 days: avg %.1f, peak %d\n", st.Timeline.Average, st.Timeline.Peak)
	for _, p := range st.Timeline.Points {
		fmt.Fprintf(w, "  %s %s\n", weekdayOf(p.Day), strings.Repeat("#", p.Count))
	}
	if st.Pattern.HasEnoughData {
		fmt.Fprintf(w, "Pattern:     %s\n", st.Pattern.Type)
	} else {
		fmt.Fprintf(w, "Pattern:     %d more completion(s) needed\n", st.Pattern.DaysRemaining)
	}
	for _, share := range st.Categories {
		if share.Count > 0 {
			fmt.Fprintf(w, "  %-8s %3d%% (%d)\n", share.Category, share.Percent, share.Count)
		}
	}
}

func weekdayOf(d civil.Date) string {
	return d.In(time.UTC).Format("Mon")
}
