// cmd/server/commands.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/database"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

var configPath string

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "serial-service",
		Short: "Serve a single serial port connection over HTTP and WebSocket",
		Long: `serial-service owns at most one open serial port and exposes open, close,
write and read over a REST API and a WebSocket command channel.

Running without a subcommand is the same as "serve".`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newPortsCommand())
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := NewApplication(configPath)
	if err != nil {
		return err
	}
	return app.Start()
}

func newPortsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		Long: `List the serial ports known to the operating system, sorted by name.

With --detailed, USB adapters are shown with their vendor and product ids.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			detailed, _ := cmd.Flags().GetBool("detailed")

			ports := service.NewPortService(serial.SystemEnumerator{}, zap.NewNop())
			if detailed {
				renderPortTable(ports.ListDetailedPorts(cmd.Context()))
				return nil
			}

			names := ports.ListPorts(cmd.Context())
			if len(names) == 0 {
				fmt.Println("No serial ports found")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("detailed", "d", false, "Show USB metadata")
	return cmd
}

// renderPortTable prints enumerated ports in a styled table
func renderPortTable(ports []*serial.PortDetails) {
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240"))

	const row = "%-20s %-6s %-6s %-18s %-24s %s"
	fmt.Println(headerStyle.Render(fmt.Sprintf(row, "Port", "VID", "PID", "Serial", "Adapter", "Product")))

	for _, p := range ports {
		vid, pid := "-", "-"
		if p.IsUSB {
			vid, pid = p.VID, p.PID
		}
		adapter := strings.TrimSpace(p.Vendor + " " + p.Model)
		fmt.Printf(row+"\n", p.Name, vid, pid, p.SerialNumber, adapter, p.Product)
	}
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the journal database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all migrations",
		RunE: withMigrator(func(m *database.Migrator, args []string) error {
			return m.Up()
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: withMigrator(func(m *database.Migrator, args []string) error {
			return m.Down()
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withMigrator(func(m *database.Migrator, args []string) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Force the schema version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(m *database.Migrator, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return m.Force(version)
		}),
	})

	return cmd
}

// withMigrator connects to the configured database for a migrate subcommand
func withMigrator(run func(*database.Migrator, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if !cfg.Database.Enabled {
			fmt.Fprintln(os.Stderr, "database.enabled is false; nothing to migrate")
			return nil
		}

		logger, err := utils.NewLogger(&cfg.Logging)
		if err != nil {
			return err
		}
		defer utils.CloseLogger(logger)

		db, err := database.NewConnection(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		return run(database.NewMigrator(db, logger), args)
	}
}
