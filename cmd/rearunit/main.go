package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"

	"github.com/spf13/cobra"

	"github.com/robotalks/rear.go/pkg/config"
)

var (
	configFile string
	overrides  = config.SetupFlags(flag.CommandLine)
)

var rootCmd = &cobra.Command{
	Use:   "rearunit",
	Short: "Rear vehicle unit controller",
	Long: `rearunit runs the rear vehicle unit: it samples the engine speed,
motor temperature and fuel sensors, drives the throttle servo from CAN
requests and relays assembled telemetry packets over the radio modem.

Configuration comes from built-in defaults, overlaid by the YAML file
given with --config, overlaid by the flags given on the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		// glog refuses to log before the go flag set is parsed
		return flag.CommandLine.Parse(nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// loadConfig resolves the effective configuration of cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	conf := config.NewConfig()
	if configFile != "" {
		var err error
		if conf, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}
	overrides.ApplyIf(conf, cmd.Flags().Changed)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
