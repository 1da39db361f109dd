package cmd

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sapcc/go-bits/httpapi"
	"github.com/sapcc/go-bits/logg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yaroslaff/sashimidb/internal/api"
	"github.com/yaroslaff/sashimidb/internal/config"
	"github.com/yaroslaff/sashimidb/internal/registry"
)

var listenAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddress, "listen", ":8080", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	master, err := loadMasterConfig()
	if err != nil {
		return err
	}

	projectsRoot := viper.GetString("projects_root")
	if projectsRoot == "" {
		projectsRoot, _ = master.String("projects")
	}

	reg := registry.New(master, projectsRoot, version)
	if err := reg.Discover(); err != nil {
		return err
	}
	if err := reg.Bootstrap(context.Background(), config.ReadEnvOverrides()); err != nil {
		return err
	}

	prometheus.MustRegister(&api.DatasetMetricsCollector{Registry: reg})

	var handler http.Handler = httpapi.Compose(api.NewProvider(reg))
	handler = logg.Middleware{}.Wrap(handler)

	if origins := master.StringList("origins"); len(origins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}).Handler(handler)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler)

	logg.Info("listening on " + listenAddress)
	return http.ListenAndServe(listenAddress, mux)
}

// loadMasterConfig reads the --config file (if given) into a master
// Configuration node, mirroring config.Load's "missing file is empty
// config" behavior when --config is omitted entirely.
func loadMasterConfig() (*config.Node, error) {
	path := viper.GetString("config")
	if path == "" {
		return config.New(config.RoleMaster, nil), nil
	}
	return config.Load(path, config.RoleMaster, nil)
}
