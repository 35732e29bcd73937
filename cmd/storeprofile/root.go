package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for storeprofile.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storeprofile",
		Short: "Profile public storefronts from their catalog endpoints",
		Long: `storeprofile builds a profile of a public storefront.

It reads the paginated /products.json and /collections.json endpoints,
the sitemap and the homepage, and summarizes prices, product types, tags,
collections, the SEO footprint, the tech stack and groups of similar
products. Only the product catalog is required; every other source may
fail without failing the run.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewProfileCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
