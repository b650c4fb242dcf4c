// =============================================================================
// devres - Main Entry Point
// =============================================================================
//
// devres turns a device description (tiles, sites, wires, nodes, packages)
// and its cell library into one compact, string-indexed artifact that
// placers and routers load instead of walking the full device model.
//
// THE PIPELINE:
//   1. CUE validates the JSON device description
//   2. The builder canonicalizes site types, tile types, wires and nodes
//   3. The tables are flattened into a summary and checked by OPA rules
//   4. The artifact is encoded, gzip framed and written atomically
//   5. Optionally the artifact is uploaded to S3-compatible storage
//
// WHEN AN EXPORT FAILS:
//   Schema errors point at the description, integrity errors at a reference
//   the device model could not resolve, policy errors at the summary row.
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/robert-at-pretension-io/devres/internal/config"
	"github.com/robert-at-pretension-io/devres/internal/exporter"
	"github.com/robert-at-pretension-io/devres/internal/interchange"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "init":
		runInit()
	case "batch":
		runBatch(os.Args[2:])
	case "inspect":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runInspect(os.Args[2])
	case "-v", "--verbose":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		runExport(os.Args[2], "", true)
	case "-h", "--help", "help":
		printUsage()
	case "-c", "--config":
		if len(os.Args) < 4 {
			printUsage()
			os.Exit(1)
		}
		runExport(os.Args[3], os.Args[2], false)
	default:
		runExport(cmd, "", false)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: devres [command] [options] <device.json>

Commands:
  init              Create a devres.json configuration file
  batch             Export every device listed in the configuration
  inspect <file>    Print the header and table sizes of an artifact
  <device.json>     Export one device description

Options:
  -v, --verbose     Enable verbose output
  -c, --config      Specify config file: devres -c config.json <device.json>
                    or: devres batch -c config.json
  -h, --help        Show this help message

Configuration:
  devres looks for configuration in:
    1. ./devres.json
    2. ./.devres.json
    3. ~/.config/devres/config.json

  Upload credentials are read from DEVRES_S3_* variables or a .env file.
  Run 'devres init' to create a default configuration file.`)
}

func runInit() {
	configPath := "devres.json"

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	cfg.Devices = []config.DeviceEntry{{Fabric: "devices/**/*.json"}}
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Device description patterns for 'devres batch'")
	fmt.Println("  - The cell library file")
	fmt.Println("  - Integrity rule severities")
}

func loadConfig(configPath, root string) *config.Config {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", configPath, err)
			os.Exit(1)
		}
	} else {
		cfg, err = config.Load(root)
		if err != nil {
			fmt.Printf("Warning: Could not load config: %v (using defaults)\n", err)
			cfg = config.DefaultConfig()
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading environment: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func workingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

func run(cfg *config.Config, root string, devices []config.ResolvedDevice, verbose bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := exporter.New(cfg)
	exp.Verbose = verbose
	exp.Progress = len(devices) > 1
	if _, err := exp.Run(ctx, root, devices); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(devicePath, configPath string, verbose bool) {
	root := workingDir()
	cfg := loadConfig(configPath, root)
	run(cfg, root, []config.ResolvedDevice{cfg.Resolve(root, devicePath)}, verbose)
}

func runBatch(args []string) {
	configPath := ""
	verbose := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-c", "--config":
			if i+1 >= len(args) {
				printUsage()
				os.Exit(1)
			}
			configPath = args[i+1]
			i++
		case "-v", "--verbose":
			verbose = true
		default:
			printUsage()
			os.Exit(1)
		}
	}

	root := workingDir()
	cfg := loadConfig(configPath, root)
	devices, err := cfg.ResolveDevices(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving devices: %v\n", err)
		os.Exit(1)
	}
	if len(devices) == 0 {
		fmt.Fprintln(os.Stderr, "No device descriptions matched the configured patterns.")
		os.Exit(1)
	}
	run(cfg, root, devices, verbose)
}

func runInspect(path string) {
	header, err := interchange.InspectFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(header); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding header: %v\n", err)
		os.Exit(1)
	}
}
