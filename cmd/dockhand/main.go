package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dockhand/internal/backend"
	"dockhand/internal/backend/cli"
	"dockhand/internal/config"
	"dockhand/internal/ui"
	"dockhand/pkg/container"
)

// version is set at build time via ldflags
var version = "dev"

var (
	cfgFile string
	verbose bool
	console = ui.NewConsole()
)

var rootCmd = &cobra.Command{
	Use:     "dockhand",
	Short:   "Dockhand - uniform container lifecycle operations over the docker CLI and Engine API",
	Version: version,
	Long: `Dockhand runs, inspects and queries containers through a single abstract
interface. The configured backend decides whether operations go through the
docker binary or the Docker Engine API; both accept the same options and
produce equivalent containers.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [flags] -- [command...]",
	Short: "Create and start a container",
	Long: `Run creates and starts a container from the resolved image (the --image
flag, or the configured default image) and prints the backend-assigned
container identifier.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, _ := loadRuntime()

		opts, err := runOpts(cmd)
		if err != nil {
			fail(err)
		}
		image, _ := cmd.Flags().GetString("image")

		created, err := rt.Run(cmd.Context(), args, image, opts)
		if err != nil {
			fail(err)
		}
		fmt.Println(created.ID)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <container-id>",
	Short: "Print the raw inspection payload of a container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, _ := loadRuntime()

		payload, err := rt.Inspect(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		printJSON(payload)
	},
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Image queries",
}

var imageInspectCmd = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Print the raw inspection payload of an image",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, _ := loadRuntime()

		payload, err := rt.ImageInspect(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		printJSON(payload)
	},
}

var imageDigestCmd = &cobra.Command{
	Use:   "digest <image>",
	Short: "Resolve the canonical <name>@<digest> reference of an image",
	Long: `Digest prints the content-addressed reference of a pulled image. An image
that was never pulled has no digest; its reference is printed unchanged.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, _ := loadRuntime()

		digest, err := rt.ImageRepoDigest(cmd.Context(), args[0])
		if err != nil {
			fail(err)
		}
		fmt.Println(digest)
	},
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List containers (docker_cli backend only)",
	Run: func(cmd *cobra.Command, args []string) {
		rt, conf := loadRuntime()

		lister, ok := rt.(*cli.Runtime)
		if !ok {
			fail(container.NewConfigError("ps requires the docker_cli backend (configured backend: %s)", conf.Backend))
		}
		table, err := lister.PS(cmd.Context())
		if err != nil {
			fail(err)
		}
		fmt.Print(ui.RenderTable(table.Columns, table.Rows))
	},
}

// runOpts translates the run command's flags into the abstract option map.
// Only flags the user set end up as options, so configured defaults still
// apply underneath.
func runOpts(cmd *cobra.Command) (container.Opts, error) {
	flags := cmd.Flags()
	opts := container.Opts{}

	if envs, _ := flags.GetStringArray("env"); len(envs) > 0 {
		environment := make(map[string]string, len(envs))
		for _, kv := range envs {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, container.NewConfigError("invalid --env value %q, expected KEY=VALUE", kv)
			}
			environment[key] = value
		}
		opts[container.OptEnvironment] = environment
	}
	if volumes, _ := flags.GetStringArray("volume"); len(volumes) > 0 {
		opts[container.OptVolumes] = volumes
	}
	if name, _ := flags.GetString("name"); name != "" {
		opts[container.OptName] = name
	}
	if detach, _ := flags.GetBool("detach"); detach {
		opts[container.OptDetach] = true
	}
	if publishAll, _ := flags.GetBool("publish-all"); publishAll {
		opts[container.OptPublishAllPorts] = true
	}
	if flags.Changed("publish-random") {
		port, _ := flags.GetInt("publish-random")
		opts[container.OptPublishPortRandom] = port
	}
	if flags.Changed("rm") {
		remove, _ := flags.GetBool("rm")
		opts[container.OptAutoRemove] = remove
	}
	if flags.Changed("cpus") {
		cpus, _ := flags.GetFloat64("cpus")
		opts[container.OptCPUs] = cpus
	}
	if memory, _ := flags.GetString("memory"); memory != "" {
		opts[container.OptMemory] = memory
	}
	return opts, nil
}

func loadRuntime() (container.Runtime, *config.Config) {
	conf, err := config.Load(cfgFile)
	if err != nil {
		fail(err)
	}
	rt, err := backend.New(conf)
	if err != nil {
		fail(err)
	}
	return rt, conf
}

func printJSON(payload map[string]any) {
	out, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		fail(fmt.Errorf("failed to render payload: %w", err))
	}
	fmt.Println(string(out))
}

func fail(err error) {
	console.PrintError(err.Error())
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the dockhand config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	runCmd.Flags().String("image", "", "Image to run (falls back to the configured default image)")
	runCmd.Flags().StringArrayP("env", "e", nil, "Environment variable as KEY=VALUE (repeatable)")
	runCmd.Flags().StringArray("volume", nil, "Volume as host[:container[:mode]] (repeatable)")
	runCmd.Flags().String("name", "", "Container name (generated when omitted)")
	runCmd.Flags().BoolP("detach", "d", false, "Run the container in the background")
	runCmd.Flags().Bool("publish-all", false, "Publish all exposed ports to random host ports")
	runCmd.Flags().Int("publish-random", 0, "Publish this container port to a random host port")
	runCmd.Flags().Bool("rm", true, "Remove the container when it exits")
	runCmd.Flags().Float64("cpus", 0, "CPU limit (fractional CPUs)")
	runCmd.Flags().String("memory", "", "Memory limit (e.g. 512m, 2g)")
	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(inspectCmd)

	imageCmd.AddCommand(imageInspectCmd)
	imageCmd.AddCommand(imageDigestCmd)
	rootCmd.AddCommand(imageCmd)

	rootCmd.AddCommand(psCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
