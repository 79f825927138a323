package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/dynreg/internal/cli"
	"github.com/arthur-debert/dynreg/pkg/style"

	// Import packages to ensure their init() functions are called for registration
	_ "github.com/arthur-debert/dynreg/pkg/domain"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.ForWriter(os.Stderr).Error("error:"), err)
		os.Exit(1)
	}
}
