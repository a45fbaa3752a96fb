package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ebudnikov/dateguard/internal/calendar"
	"github.com/ebudnikov/dateguard/internal/config"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Query the liturgical calendar",
}

var calendarDayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "Describe one day (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCalendarDay,
}

var calendarMonthCmd = &cobra.Command{
	Use:   "month <year> <month>",
	Short: "Print the calendar grid for one month",
	Args:  cobra.ExactArgs(2),
	RunE:  runCalendarMonth,
}

var calendarUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List significant holidays in the next days",
	RunE:  runCalendarUpcoming,
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarDayCmd)
	calendarCmd.AddCommand(calendarMonthCmd)
	calendarCmd.AddCommand(calendarUpcomingCmd)

	calendarUpcomingCmd.Flags().Int("days", 30, "Window size in days")
}

func calendarService() *calendar.Service {
	cfg := config.Load()
	return calendar.New(calendar.DatasetFromFileOrDefault(cfg.Calendar.DataPath))
}

func runCalendarDay(cmd *cobra.Command, args []string) error {
	date := time.Now()
	if len(args) == 1 {
		parsed, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
		}
		date = parsed
	}

	day := calendarService().DescribeDay(date)

	fmt.Printf("%s (%s)\n", date.Format("2006-01-02"), date.Weekday())
	switch day.Category {
	case calendar.CategoryPascha, calendar.CategoryGreat, calendar.CategoryMajor:
		color.Yellow("  %s", day.Title)
	default:
		fmt.Printf("  %s\n", day.Title)
	}
	if day.Description != "" {
		fmt.Printf("  %s\n", day.Description)
	}
	if day.WeekLabel != "" {
		fmt.Printf("  %s\n", day.WeekLabel)
	}
	if day.Fast {
		color.Cyan("  Fasting day")
	}
	return nil
}

func runCalendarMonth(cmd *cobra.Command, args []string) error {
	year, err := strconv.Atoi(args[0])
	if err != nil || year < 1900 || year > 2099 {
		return fmt.Errorf("invalid year %q, expected 1900-2099", args[0])
	}
	month, err := strconv.Atoi(args[1])
	if err != nil || month < 1 || month > 12 {
		return fmt.Errorf("invalid month %q, expected 1-12", args[1])
	}

	for _, d := range calendarService().MonthCalendar(year, time.Month(month)) {
		marker := " "
		if d.Fast {
			marker = "*"
		}
		line := fmt.Sprintf("%2d %-9s %s %s", d.Day, d.Weekday, marker, d.Info.Title)
		switch d.Info.Category {
		case calendar.CategoryPascha, calendar.CategoryGreat, calendar.CategoryMajor:
			color.Yellow("%s", line)
		default:
			fmt.Println(line)
		}
	}
	fmt.Println("\n* fasting day")
	return nil
}

func runCalendarUpcoming(cmd *cobra.Command, args []string) error {
	days := mustGetInt(cmd, "days")
	holidays := calendarService().UpcomingHolidays(time.Now(), days)

	if len(holidays) == 0 {
		fmt.Printf("No significant holidays in the next %d days\n", days)
		return nil
	}
	for _, h := range holidays {
		fmt.Printf("%s  %s\n", h.Date.Format("2006-01-02"), h.Info.Title)
	}
	return nil
}
