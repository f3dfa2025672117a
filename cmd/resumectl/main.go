// Package main resumectl 命令行工具：本地解析简历、规范化解析结果、上传到服务端。
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Mangesh9326/Job-Platform/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "resumectl",
	Short: "Resume parsing and upload toolkit",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger.Init(logger.Config{Level: level, Format: "pretty", TimeFormat: "15:04:05"})
	},
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
