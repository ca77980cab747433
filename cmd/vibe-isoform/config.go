package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configKey describes a settable process default.
type configKey struct {
	boolean bool
	usage   string
}

var configKeys = map[string]configKey{
	keyMeasure:            {usage: "name of the expression value column"},
	keyCPM:                {boolean: true, usage: "add counts per million"},
	keyRelativeAbundance:  {boolean: true, usage: "add relative transcript abundance within each gene"},
	keyGeneIDColumn:       {usage: "gene identifier column"},
	keyTranscriptIDColumn: {usage: "transcript identifier column"},
	keySampleIDColumn:     {usage: "sample identifier column in the output and the metadata"},
	keyCacheDir:           {usage: "directory for parquet copies of parsed input files"},
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookupConfigKey(key string) (configKey, error) {
	k, ok := configKeys[strings.ToLower(key)]
	if !ok {
		return configKey{}, fmt.Errorf("unknown config key %q (valid keys: %s)",
			key, strings.Join(sortedConfigKeys(), ", "))
	}
	return k, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage process defaults",
		Long: `Show, list, get, or set the defaults used by "vibe-isoform process".
Defaults live in ~/.vibe-isoform.yaml under the process.* keys. Command-line
flags override them, and VIBE_ISOFORM_PROCESS_* environment variables
override the file.`,
		Example: `  vibe-isoform config                                  # show the config file
  vibe-isoform config keys                             # list settable keys
  vibe-isoform config set process.cpm true             # always add CPM
  vibe-isoform config set process.sample_id_column sample
  vibe-isoform config get process.measure`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigKeysCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List settable keys and their current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigKeys(cmd.OutOrStdout())
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a process default",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, err := configPath()
			if err != nil {
				return err
			}
			return runConfigSet(cmd.OutOrStdout(), cfgFile, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get the effective value of a process default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

func runConfigShow(w io.Writer) error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/.vibe-isoform.yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigKeys(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tDESCRIPTION")
	for _, key := range sortedConfigKeys() {
		val := ""
		if v := viper.Get(key); v != nil {
			val = fmt.Sprint(v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", key, val, configKeys[key].usage)
	}
	return tw.Flush()
}

func runConfigSet(w io.Writer, cfgFile, key, value string) error {
	k, err := lookupConfigKey(key)
	if err != nil {
		return err
	}
	key = strings.ToLower(key)

	if k.boolean {
		b, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		viper.Set(key, b)
	} else {
		viper.Set(key, value)
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	if _, err := lookupConfigKey(key); err != nil {
		return err
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}

// parseBool accepts yes/no and on/off as well as the strconv forms.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return b, nil
}
