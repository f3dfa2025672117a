package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mangesh9326/Job-Platform/internal/resume"
)

var parseCmd = &cobra.Command{
	Use:   "parse [raw.json]",
	Short: "Normalize raw engine JSON into an editable resume record",
	Long:  "Reads raw engine output from a file (or stdin when omitted or \"-\") and prints the normalized record.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

var parseFingerprint bool

func init() {
	parseCmd.Flags().BoolVar(&parseFingerprint, "fingerprint", false, "Print only the content fingerprint")

	rootCmd.AddCommand(parseCmd)
}

func runParse(_ *cobra.Command, args []string) error {
	var (
		raw []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	rec, err := resume.Normalize(raw)
	if err != nil {
		return err
	}
	if parseFingerprint {
		fmt.Println(resume.Fingerprint(rec))
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
