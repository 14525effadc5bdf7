package main

import (
	"strings"
	"time"

	"github.com/ThalesGroup/tcrest"
	"github.com/ansel1/merry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath string
	protocol   string
	host       string
	user       string
	password   string
	apikey     string
	timeout    time.Duration
	insecure   bool
	verbose    bool
	dump       bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "tcrest",
		Short: "Call the REST API of a build server",
		Long: `tcrest sends requests to the REST API of a TeamCity-style build server.

Without credentials, requests go to the guest realm.  With --user and
--password they go to the httpAuth realm, and with --apikey they carry a
bearer token.  Settings can also come from a YAML file (--config); flags
override the file.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&flags.protocol, "protocol", "", `URL scheme prefix (default "http://")`)
	pf.StringVar(&flags.host, "host", "", "server host, with optional port")
	pf.StringVarP(&flags.user, "user", "u", "", "basic auth user")
	pf.StringVarP(&flags.password, "password", "p", "", "basic auth password")
	pf.StringVar(&flags.apikey, "apikey", "", "API key, sent as a bearer token")
	pf.DurationVar(&flags.timeout, "timeout", 0, "request timeout, e.g. 30s")
	pf.BoolVarP(&flags.insecure, "insecure", "k", false, "skip TLS certificate verification")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log requests and responses to stderr")
	pf.BoolVar(&flags.dump, "dump", false, "dump raw requests and responses to stderr")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(err, ExitUsageError)
	})

	rootCmd.AddCommand(
		newGetCmd(flags),
		newRawCmd(flags),
		newSendCmd(flags),
		newURLCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}

// config merges the config file, if any, with the flags.
func (f *globalFlags) config() (tcrest.Config, error) {
	var cfg tcrest.Config
	if f.configPath != "" {
		var err error
		cfg, err = tcrest.LoadConfig(f.configPath)
		if err != nil {
			return cfg, withExitCode(err, ExitConfigError)
		}
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Protocol, f.protocol)
	set(&cfg.Host, f.host)
	set(&cfg.User, f.user)
	set(&cfg.Password, f.password)
	set(&cfg.APIKey, f.apikey)

	if f.timeout > 0 {
		cfg.Transport.Timeout = f.timeout
	}
	if f.insecure {
		cfg.Transport.InsecureSkipVerify = true
	}

	return cfg.Validate()
}

func (f *globalFlags) client(cmd *cobra.Command, opts ...tcrest.Option) (*tcrest.Client, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}

	if f.verbose {
		logger := logrus.New()
		logger.SetOutput(cmd.ErrOrStderr())
		logger.SetLevel(logrus.DebugLevel)
		opts = append(opts, tcrest.WithLogger(logger))
	}
	if f.dump {
		opts = append(opts, tcrest.Dump(cmd.ErrOrStderr()))
	}

	return tcrest.NewClient(cfg, opts...)
}

// usageArgs marks argument validation errors as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withExitCode(validate(cmd, args), ExitUsageError)
	}
}

// headerOptions parses "Key: Value" header flags.
func headerOptions(headers []string) ([]tcrest.CallOption, error) {
	opts := make([]tcrest.CallOption, 0, len(headers))
	for _, h := range headers {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, withExitCode(merry.Errorf("invalid header %q, expected \"Key: Value\"", h), ExitUsageError)
		}
		opts = append(opts, tcrest.Header(key, strings.TrimSpace(value)))
	}
	return opts, nil
}
