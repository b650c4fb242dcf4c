package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/robert-at-pretension-io/devres/internal/config"
	"github.com/robert-at-pretension-io/devres/internal/exporter"
	"github.com/robert-at-pretension-io/devres/internal/summary"
)

func main() {
	output := flag.String("output", "", "write summary JSON to file (default: stdout)")
	flag.StringVar(output, "o", "", "write summary JSON to file (shorthand)")
	configPath := flag.String("c", "", "config file (default: search devres.json)")
	deltaFrom := flag.String("delta-from", "", "previous summary JSON to compute delta from")
	deltaOut := flag.String("delta-out", "", "write delta JSON to file (requires --delta-from)")
	tileTypes := flag.String("tile-types", "", "comma-separated tile types to keep in tile rows")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: devres-summary [--output file] [-c config.json] [--tile-types A,B] [--delta-from prev.json --delta-out delta.json] <device.json>")
		os.Exit(1)
	}

	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	exp := exporter.New(cfg)
	conv, err := exp.Convert(cfg.Resolve(root, args[0]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	tables := conv.Tables
	filter := parseSet(*tileTypes)
	if filter != nil {
		tables = summary.FilterTablesByTileTypes(tables, filter)
	}

	if *output != "" {
		if err := writeJSON(*output, tables); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing summary: %v\n", err)
			os.Exit(1)
		}
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tables); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding summary: %v\n", err)
			os.Exit(1)
		}
	}

	if *deltaFrom != "" || *deltaOut != "" {
		if *deltaFrom == "" || *deltaOut == "" {
			fmt.Fprintln(os.Stderr, "Error: --delta-from and --delta-out must be used together")
			os.Exit(1)
		}
		prev, err := readTables(*deltaFrom)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading delta-from: %v\n", err)
			os.Exit(1)
		}
		delta := summary.ComputeDelta(prev, tables)
		if filter != nil {
			delta = summary.FilterDeltaByTileTypes(delta, filter)
		}
		if err := writeJSON(*deltaOut, delta); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing delta: %v\n", err)
			os.Exit(1)
		}
	}
}

func parseSet(list string) map[string]bool {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			set[item] = true
		}
	}
	return set
}

func readTables(path string) (summary.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return summary.Tables{}, err
	}
	defer func() { _ = f.Close() }()

	var tables summary.Tables
	if err := json.NewDecoder(f).Decode(&tables); err != nil {
		return summary.Tables{}, err
	}
	return tables, nil
}

func writeJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
