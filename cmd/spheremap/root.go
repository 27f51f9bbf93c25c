package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spheremap/internal/client"
	"spheremap/internal/config"
)

var version = "0.3.0"

// Output styles
var (
	brand  = color.New(color.FgHiCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

// globals shared by the subcommands
type globals struct {
	configPath string
	baseURL    string
	token      string
	orgID      int64
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:           "spheremap",
		Short:         "spheremap: spheres, nodes and edges on one canvas",
		Long:          brand.Sprint("spheremap") + " lays out an organization's spheres, nodes and edges\n" + subtle.Sprint("and keeps browsers in sync with the remote map API"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("spheremap {{ .Version }}\n")

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default: search "+config.ConfigFileName+", XDG and /etc)")
	flags.StringVar(&g.baseURL, "api", "", "map API base URL (overrides config)")
	flags.StringVar(&g.token, "token", "", "API bearer token (overrides config)")
	flags.Int64Var(&g.orgID, "org", 0, "organization id (overrides config)")

	cmd.AddCommand(
		serveCmd(g),
		layoutCmd(g),
		exportCmd(g),
		importCmd(g),
		configCmd(g),
		versionCmd(),
	)

	return cmd
}

// load resolves the config file and applies flag overrides
func (g *globals) load() (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if g.configPath != "" {
		cfg, path, err = config.LoadFromPath(g.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if path != "" {
		subtle.Printf("  config: %s\n", path)
	}

	if g.baseURL != "" {
		cfg.API.BaseURL = g.baseURL
	}
	if g.token != "" {
		cfg.API.Token = g.token
	}
	if g.orgID != 0 {
		cfg.OrganizationID = g.orgID
	}
	return cfg, cfg.Validate()
}

func newClient(cfg *config.Config) *client.Client {
	return client.New(cfg.API.BaseURL,
		client.WithToken(cfg.API.Token),
		client.WithTimeout(cfg.API.Timeout.Duration()),
	)
}

func requireOrg(cfg *config.Config) error {
	if cfg.OrganizationID <= 0 {
		return fmt.Errorf("no organization: set organization_id, %s or --org", config.EnvOrgID)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", brand.Sprint("spheremap"), version)
		},
	}
}

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Summary())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			good.Fprintf(cmd.OutOrStdout(), "  wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

// elapsed formats a duration for status lines
func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
