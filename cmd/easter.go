package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ebudnikov/dateguard/internal/calendar"
)

var easterCmd = &cobra.Command{
	Use:   "easter <year>",
	Short: "Print the Orthodox Easter date of a year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := strconv.Atoi(args[0])
		if err != nil || year < 1900 || year > 2099 {
			return fmt.Errorf("invalid year %q, expected 1900-2099", args[0])
		}
		fmt.Println(calendar.ComputeEaster(year).Format("2006-01-02"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(easterCmd)
}
