package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	imageaugmenter "github.com/menta2k/image-augmenter"
	"github.com/menta2k/image-augmenter/internal/config"
	"github.com/menta2k/image-augmenter/internal/logger"
	"github.com/menta2k/image-augmenter/internal/utils"
	"github.com/menta2k/image-augmenter/pkg/ops"
	"github.com/menta2k/image-augmenter/pkg/pipeline"
	"github.com/menta2k/image-augmenter/pkg/resample"
)

var osFs = afero.NewOsFs()

// app is the state shared by every command after flags and config are resolved
type app struct {
	configPath string
	logLevel   string
	logJSON    bool

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "image-augmenter",
		Short:         "Geometric augmentation for images and their YOLO labels",
		Version:       imageaugmenter.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.GetConfigPath()+" when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "log as JSON")

	root.AddCommand(
		newComposeCmd(a),
		newTransformCmd(a),
		newBatchCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" && utils.FileExists(osFs, config.GetConfigPath()) {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON = a.logJSON
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.LogLevel(cfg.Log.Level)
	logCfg.JSON = cfg.Log.JSON
	logCfg.Output = cmd.ErrOrStderr()
	a.log = logger.NewLogger(logCfg)
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), a.log))
	return nil
}

// runner builds a pipeline runner from the loaded configuration
func (a *app) runner() (*pipeline.Runner, error) {
	interp, err := resample.ParseInterpolation(a.cfg.Pipeline.Interpolation)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewWithConfig(pipeline.Config{
		Seed:          a.cfg.Pipeline.Seed,
		Workers:       a.cfg.Pipeline.Workers,
		Interpolation: interp,
	})
	r.SetLogger(a.log)
	return r, nil
}

// readOps loads an op list from a YAML or JSON file, or stdin for "-"
func readOps(cmd *cobra.Command, path string) ([]ops.Operation, error) {
	if path == "" {
		return nil, fmt.Errorf("--ops is required")
	}
	if path == "-" {
		return ops.ParseReader(cmd.InOrStdin())
	}
	f, err := osFs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open op list: %w", err)
	}
	defer f.Close()
	list, err := ops.ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.FromContext(cmd.Context()).Debug("loaded op list", "path", path, "ops", len(list))
	return list, nil
}
