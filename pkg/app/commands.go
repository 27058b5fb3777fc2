package app

// pkg/app/commands.go: the serve, routes and version sub-commands.

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/envhttp/config"
	"github.com/shashiranjanraj/envhttp/internal/server"
	"github.com/shashiranjanraj/envhttp/pkg/bridge"
	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// serveOptions merges config with whatever flags were given explicitly.
func (a *Application) serveOptions(cmd *cobra.Command) server.Options {
	opts := server.OptionsFromConfig()
	f := cmd.Flags()

	if f.Changed("host") {
		opts.Engine.Host, _ = f.GetString("host")
	}
	if f.Changed("port") {
		opts.Engine.Port, _ = f.GetInt("port")
	}
	if f.Changed("processors") {
		opts.Engine.Processors, _ = f.GetInt("processors")
	}
	if f.Changed("timeout") {
		opts.Engine.Timeout, _ = f.GetInt("timeout")
	}
	if f.Changed("throttle") {
		opts.Engine.Throttle, _ = f.GetInt("throttle")
	}
	if f.Changed("map-host") {
		opts.MapHost, _ = f.GetString("map-host")
	}
	if f.Changed("metrics-path") {
		opts.MetricsPath, _ = f.GetString("metrics-path")
	}

	opts.Middlewares = append([]gateway.Middleware(nil), a.middlewares...)
	opts.Configure = append(([]func(*engine.Server))(nil), a.configure...)
	return opts
}

func (a *Application) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start", "run", "s"},
		Short:   "Start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return server.Start(a.target, a.serveOptions(cmd))
		},
	}

	def := engine.DefaultOptions()
	f := cmd.Flags()
	f.String("host", def.Host, "address to bind")
	f.IntP("port", "p", def.Port, "port to listen on")
	f.IntP("processors", "R", def.Processors, "max concurrently open connections")
	f.IntP("timeout", "T", def.Timeout, "read/idle timeout in seconds")
	f.IntP("throttle", "B", def.Throttle, "pause after each accept, in hundredths of a second")
	f.String("map-host", "", "only mount routing table entries for this host")
	f.String("metrics-path", "/metrics", "path for the Prometheus page (empty disables)")
	return cmd
}

// recorder is a bridge.Registrar that only remembers what was registered.
type recorder struct{ paths []string }

func (r *recorder) Register(path string, _ engine.Handler) { r.paths = append(r.paths, path) }

func (a *Application) routesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routes",
		Aliases: []string{"route:list"},
		Short:   "List the dispatch table",
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("map-host")
			if !cmd.Flags().Changed("map-host") {
				host = config.MapHost()
			}

			entries, err := bridge.Mount(&recorder{}, a.target, bridge.WithHost(host))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No routes registered.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "HOST\tPATH\tAPP")
			fmt.Fprintln(w, "----\t----\t---")
			for _, e := range entries {
				h := e.Host
				if h == "" {
					h = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%T\n", h, e.Path, e.App)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("map-host", "", "only list routing table entries for this host")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine and calling-convention versions",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "envhttp %s (gateway %d.%d)\n",
				engine.Version, gateway.Version[0], gateway.Version[1])
		},
	}
}
