package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mangesh9326/Job-Platform/internal/config"
	"github.com/Mangesh9326/Job-Platform/internal/extraction"
	"github.com/Mangesh9326/Job-Platform/internal/parser"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Run the extraction engine on a resume file and print its raw JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var (
	extractMode    string
	extractCommand string
	extractArgs    []string
	extractTimeout time.Duration
	extractTika    string
)

func init() {
	extractCmd.Flags().StringVar(&extractMode, "mode", config.ExtractorModeBuiltin, "Engine mode: builtin or command")
	extractCmd.Flags().StringVar(&extractCommand, "command", "python3", "External engine executable (mode=command)")
	extractCmd.Flags().StringSliceVar(&extractArgs, "args", nil, "Arguments placed before the file path (mode=command)")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 60*time.Second, "Engine timeout")
	extractCmd.Flags().StringVar(&extractTika, "tika", os.Getenv("TIKA_URL"), "Tika server URL for .doc files (mode=builtin)")

	rootCmd.AddCommand(extractCmd)
}

func newCLIExtractor() (extraction.Extractor, error) {
	switch extractMode {
	case config.ExtractorModeBuiltin:
		engine := parser.NewEngine()
		if extractTika != "" {
			tika, err := parser.NewTikaClient(extractTika, parser.WithTikaTimeout(extractTimeout))
			if err != nil {
				return nil, err
			}
			engine.Fallback = tika
		}
		return extraction.NewBuiltinExtractor(engine), nil
	case config.ExtractorModeCommand:
		return extraction.NewCommandGateway(extractCommand,
			extraction.WithArgs(extractArgs...),
			extraction.WithTimeout(extractTimeout),
		), nil
	}
	return nil, fmt.Errorf("unknown mode %q", extractMode)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ex, err := newCLIExtractor()
	if err != nil {
		return err
	}
	raw, err := ex.Extract(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("engine output is not valid JSON: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(os.Stdout)
	return err
}
