package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/components/autocomplete"
	"github.com/goliatone/go-formset/internal/config"
	"github.com/goliatone/go-formset/internal/server"
	"github.com/goliatone/go-formset/pkg/navigator"
	"github.com/goliatone/go-formset/pkg/render"
)

type serveFlags struct {
	envFiles []string
	host     string
	port     int
}

func newServeCmd(app *App) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve add-row, widget binding and autocomplete endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.envFiles...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = flags.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = flags.port
			}
			logger := app.Logger()
			if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("log-format") {
				logger = cfg.Logger()
			}

			fns, err := serverOptions(cfg)
			if err != nil {
				return err
			}
			fns = append(fns, server.WithLogger(logger))
			srv, err := server.New(fns...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg.Address())
		},
	}

	cmd.Flags().StringArrayVar(&flags.envFiles, "env-file", config.DefaultEnvFiles, "Env files to load when present")
	cmd.Flags().StringVar(&flags.host, "host", "", "Listen host (overrides FORMSET_HOST)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "Listen port (overrides FORMSET_PORT)")
	return cmd
}

// serverOptions turns the configuration into server options, loading the
// participant source, widget bindings and row template it names.
func serverOptions(cfg *config.Configuration) ([]server.OptionFn, error) {
	fns := []server.OptionFn{
		server.WithBasePath(cfg.Server.BasePath),
		server.WithMetricsPath(cfg.Server.MetricsPath),
		server.WithMaxForms(cfg.MaxForms),
		server.WithNavigator(navigator.New(navigator.WithAdminPrefix(cfg.AdminPrefix))),
	}

	autocompleteBase := ""
	if path := strings.TrimSpace(cfg.Data.SourceFile); path != "" {
		source, err := autocomplete.LoadSource(os.DirFS(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return nil, err
		}
		component := autocomplete.New(source, autocomplete.WithMatchMode(autocomplete.MatchMode(cfg.Data.MatchMode)))
		fns = append(fns, server.WithAutocomplete(component))
		autocompleteBase = cfg.Server.BasePath
	}

	registry, err := buildWidgetRegistry(cfg.Data.BindingsDir, autocompleteBase)
	if err != nil {
		return nil, err
	}
	fns = append(fns, server.WithWidgets(registry))

	if path := strings.TrimSpace(cfg.Data.RowTemplate); path != "" {
		rowFns, err := rowTemplateOptions(path)
		if err != nil {
			return nil, err
		}
		fns = append(fns, rowFns...)
	}
	return fns, nil
}

// rowTemplateOptions loads the row template by name from its directory, so
// pongo2 include and extends tags resolve next to it.
func rowTemplateOptions(path string) ([]server.OptionFn, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("row template: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("row template: %w", err)
	}
	name := filepath.Base(abs)
	ext := filepath.Ext(name)
	if ext == "" {
		return nil, fmt.Errorf("row template %q: file extension required", path)
	}

	engine, err := render.New(render.WithBaseDir(filepath.Dir(abs)), render.WithExtension(ext))
	if err != nil {
		return nil, fmt.Errorf("row template: %w", err)
	}
	return []server.OptionFn{
		server.WithEngine(engine),
		server.WithRowTemplateName(name),
	}, nil
}
