package di

import (
	"flag"
	"io"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/factory"
	"github.com/mikey/msg-spam-filter/internal/logging"
	"github.com/mikey/msg-spam-filter/internal/scoring"
	"github.com/mikey/msg-spam-filter/internal/utils"
	"github.com/mikey/msg-spam-filter/internal/whitelist"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Message flags
	Profile string
	Sender  string
	Subject string
	Text    string

	// Input and output flags
	InputFile  string
	JSON       bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line arguments (without the program name)
func ParseFlags(args []string, output io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("spam-detector", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&flags.Profile, "profile", "sms", "Scoring profile (sms, email)")
	fs.StringVar(&flags.Sender, "sender", "", "Sender phone number or address")
	fs.StringVar(&flags.Subject, "subject", "", "Subject line (email profile)")
	fs.StringVar(&flags.Text, "text", "", "Message text (read from -file or stdin if not specified)")

	fs.StringVar(&flags.InputFile, "file", "", "Input file; with -profile email it is parsed as an RFC 5322 message")
	fs.BoolVar(&flags.JSON, "json", false, "Print the result as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file for scoring overrides and trusted senders")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration; without -config only defaults and environment apply
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile == "" {
			return config.NewFromViper(config.NewEmptyViper()), nil
		}
		cfg, err := config.NewWithFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewScoringFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ScoringFactory) (*scoring.Engine, error) {
		return f.CreateEngine()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetTrustedSenders(), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
