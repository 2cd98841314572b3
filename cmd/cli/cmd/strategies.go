// Package cmd - strategies command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"shipalloc/core/alloc"
)

// strategiesCmd lists the registered allocation strategies
var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List available allocation strategies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range alloc.DefaultRegistry().Names() {
			fmt.Println(name)
		}
	},
}
