package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	scriptPath := flag.String("script", "", "path to a Lisp script to evaluate")
	outPath := flag.String("out", "", "write the evaluation result as JSON to this file")
	stats := flag.Bool("stats", false, "print per-mesh geometry statistics")
	flag.Parse()

	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "usage: meshwright -script file.lisp [-out result.json] [-stats]")
		os.Exit(2)
	}

	source, err := os.ReadFile(*scriptPath)
	if err != nil {
		log.Fatalf("read script: %v", err)
	}

	app := NewApp()
	result := app.Evaluate(string(source))

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: line %d: %s\n", e.Line, e.Message)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
	}
	if len(result.Errors) > 0 {
		os.Exit(1)
	}

	if *stats {
		for _, m := range result.Meshes {
			fmt.Printf("%-16s %6d corners %6d triangles  %s\n",
				m.PartName, len(m.Vertices)/3, len(m.Indices)/3, m.Color)
		}
	}

	if *outPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("encode result: %v", err)
		}
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			log.Fatalf("write result: %v", err)
		}
	}
}
