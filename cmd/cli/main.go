package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host   string
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "basket-cli",
	Short: "A CLI to operate an EntrenadorBasket server",
	Long: `A command-line interface for EntrenadorBasket.

Remote commands talk to a running server over HTTP (--host).
Admin commands open the database directly (--db, or TURSO_PRIMARY_URL).`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "entrenador.db", "Local SQLite database file for admin commands")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
