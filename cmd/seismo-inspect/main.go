// Seismo Inspect - utility to display the contents of seismo-locator
// fixture files. Trimmed down from the reference reader's full sample
// dump/graph/hex toolkit to a single summary view, since the typed
// float32/int32 matrices this core passes around don't carry the IQ
// sample structure (magnitude, phase, device settings) that reader was
// built to inspect.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"seismo-locator/internal/filewriter"
	"seismo-locator/internal/sentinel"
	"seismo-locator/internal/version"

	"github.com/spf13/cobra"
)

var (
	showPayload bool
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "seismo-inspect [file.bin]",
	Short: "Display the contents of a seismo-locator fixture file",
	Long: `Seismo Inspect displays the header and, optionally, the payload of a
fixture file produced by any seismo-locator tool: signal blocks, velocity
models, station coordinates, search origins, real delays, or diff cubes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersionInfo("Seismo Inspect"))
			return
		}
		if len(args) == 0 {
			fmt.Fprintf(os.Stderr, "Error: filename required\n")
			cmd.Usage()
			os.Exit(1)
		}
		if err := inspectFile(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")
	rootCmd.Flags().BoolVarP(&showPayload, "payload", "p", false, "load and summarize the payload, not just the header")
}

func inspectFile(filename string) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}

	header, err := filewriter.PeekHeader(filename)
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	fileInfo, err := os.Stat(filename)
	if err != nil {
		return err
	}

	fmt.Printf("╔══════════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║              SEISMO INSPECT %s                ║\n", fmt.Sprintf("%-8s", version.GetFullVersion()))
	fmt.Printf("╚══════════════════════════════════════════════════════════════╝\n\n")

	fmt.Printf("📁 File: %s\n", filepath.Base(filename))
	fmt.Printf("📏 Size: %.2f KB (%d bytes)\n\n", float64(fileInfo.Size())/1024, fileInfo.Size())

	fmt.Printf("🔧 Header:\n")
	fmt.Printf("┌─────────────────────────┬─────────────────────────────────────────┐\n")
	fmt.Printf("│ Field                   │ Value                                   │\n")
	fmt.Printf("├─────────────────────────┼─────────────────────────────────────────┤\n")
	fmt.Printf("│ Kind                    │ %-39s │\n", filewriter.KindString(header.Kind))
	fmt.Printf("│ Format Version          │ %-39d │\n", header.FormatVersion)
	fmt.Printf("│ Rows                    │ %-39d │\n", header.Rows)
	fmt.Printf("│ Cols                    │ %-39d │\n", header.Cols)
	fmt.Printf("│ Elements                │ %-39d │\n", header.Rows*header.Cols)
	fmt.Printf("└─────────────────────────┴─────────────────────────────────────────┘\n\n")

	if !showPayload {
		return nil
	}

	switch header.Kind {
	case filewriter.KindRealDelays:
		return summarizeInt32(filename)
	default:
		return summarizeFloat32(filename)
	}
}

func summarizeFloat32(filename string) error {
	_, data, err := filewriter.ReadFloat32Matrix(filename)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	if len(data) == 0 {
		fmt.Printf("Payload: (empty)\n")
		return nil
	}

	min, max := data[0], data[0]
	var sum float64
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += float64(v)
	}

	fmt.Printf("📊 Payload Analysis (real32):\n")
	fmt.Printf("┌─────────────────────────┬─────────────────────────────────────────┐\n")
	fmt.Printf("│ Statistic               │ Value                                   │\n")
	fmt.Printf("├─────────────────────────┼─────────────────────────────────────────┤\n")
	fmt.Printf("│ Min                     │ %-39.4f │\n", min)
	fmt.Printf("│ Max                     │ %-39.4f │\n", max)
	fmt.Printf("│ Mean                    │ %-39.4f │\n", sum/float64(len(data)))
	fmt.Printf("└─────────────────────────┴─────────────────────────────────────────┘\n\n")

	return nil
}

func summarizeInt32(filename string) error {
	_, data, err := filewriter.ReadInt32Matrix(filename)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	if len(data) == 0 {
		fmt.Printf("Payload: (empty)\n")
		return nil
	}

	null := 0
	min, max := data[0], data[0]
	for _, v := range data {
		if v == sentinel.Value {
			null++
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	fmt.Printf("📊 Payload Analysis (int32):\n")
	fmt.Printf("┌─────────────────────────┬─────────────────────────────────────────┐\n")
	fmt.Printf("│ Statistic               │ Value                                   │\n")
	fmt.Printf("├─────────────────────────┼─────────────────────────────────────────┤\n")
	fmt.Printf("│ Min (non-NULL)          │ %-39d │\n", min)
	fmt.Printf("│ Max (non-NULL)          │ %-39d │\n", max)
	fmt.Printf("│ NULL Count              │ %-39s │\n", fmt.Sprintf("%d / %d", null, len(data)))
	fmt.Printf("└─────────────────────────┴─────────────────────────────────────────┘\n\n")

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
