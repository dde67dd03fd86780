package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/taigrr/pivot/pkg/config"
)

var flagForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the navigation settings file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings in effect",
	Long:  "Load the settings file (or the defaults when it does not exist) and print every field.",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !flagForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default settings to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	log, closeLog, err := openLog(flagLogFile, "")
	if err != nil {
		return err
	}
	defer closeLog()

	path, err := settingsPath()
	if err != nil {
		return err
	}
	s, err := config.Load(path)
	if err != nil {
		log.Warn("settings file rejected", "path", path, "error", err)
	}
	printFields(cmd.OutOrStdout(), path, s.Fields())
	return err
}

// printFields writes one aligned "name value" line per field. Names are
// bold when w is a color terminal.
func printFields(w io.Writer, path string, fields []config.Field) {
	out := termenv.NewOutput(w)
	fmt.Fprintf(w, "# %s\n", path)

	width := 0
	for _, f := range fields {
		width = max(width, len(f.Name))
	}
	for _, f := range fields {
		name := out.String(fmt.Sprintf("%-*s", width, f.Name)).Bold()
		value := f.Value
		if value == "" {
			value = out.String("(empty)").Faint().String()
		}
		fmt.Fprintf(w, "%s  %s\n", name, value)
	}
}
