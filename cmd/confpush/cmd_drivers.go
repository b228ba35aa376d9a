package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/confpush-network/confpush/pkg/driver"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List supported device OS identifiers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, devOS := range driver.List() {
			fmt.Println(devOS)
		}
	},
}
