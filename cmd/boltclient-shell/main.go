// Package main provides a small interactive Bolt shell for exercising
// a boltclient connection by hand, in the same vein as the teacher's
// `nornicdb shell` subcommand.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orneryd/boltclient/pkg/bolt"
	"github.com/orneryd/boltclient/pkg/config"
	"github.com/orneryd/boltclient/pkg/telemetry"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "boltclient-shell",
		Short: "boltclient - a minimal interactive client for the Bolt protocol",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("boltclient-shell v%s\n", version)
		},
	})

	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Open an interactive RUN/PULL shell against a Bolt server",
		RunE:  runConnect,
	}
	connectCmd.Flags().String("address", "localhost:7687", "server address (host:port)")
	connectCmd.Flags().String("user", "", "basic auth username")
	connectCmd.Flags().String("password", "", "basic auth password")
	connectCmd.Flags().String("config", "", "YAML config file path")
	rootCmd.AddCommand(connectCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	address, _ := cmd.Flags().GetString("address")
	user, _ := cmd.Flags().GetString("user")
	password, _ := cmd.Flags().GetString("password")

	var cfg config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFromFile(cfgPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}
	if address != "" {
		cfg.Address = address
	}

	auth := map[string]any{"scheme": "none"}
	if user != "" {
		auth = map[string]any{"scheme": "basic", "principal": user, "credentials": password}
	}

	ctx := context.Background()
	cc := cfg.ConnConfig(auth)
	cc.Tracer = telemetry.Tracer()
	conn, err := bolt.Connect(ctx, cc)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Goodbye()

	fmt.Printf("connected, Bolt %s, state %s\n", conn.Version(), conn.State())
	fmt.Println("enter Cypher; blank line to quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("bolt> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}
		if err := runOnce(conn, line); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func runOnce(conn *bolt.Connection, cypher string) error {
	succ, err := conn.Run(cypher, nil, nil)
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(succ.Fields, " | "))
	_, err = conn.Pull(-1, -1, func(r *bolt.Record) error {
		parts := make([]string, len(r.Values))
		for i, v := range r.Values {
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(parts, " | "))
		return nil
	})
	return err
}
