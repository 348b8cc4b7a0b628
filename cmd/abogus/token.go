package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/abogus/internal/config"
	"github.com/nao1215/abogus/internal/mstoken"
)

// NewTokenCmd creates the token command.
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate random ms_token values",
		Long: `Token prints random ms_token values drawn uniformly from A-Z, a-z and 0-9
using the operating system's cryptographic random source.

Examples:
  # One token of the default length (107)
  abogus token

  # Five 32-character tokens
  abogus token -l 32 -n 5`,
		Args: cobra.NoArgs,
		RunE: runTokenCmd,
	}

	cmd.Flags().IntP("length", "l", config.DefaultTokenLength,
		"Token length")
	cmd.Flags().IntP("count", "n", 1,
		"Number of tokens to generate")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .abogus in current or home directory)")

	return cmd
}

// runTokenCmd executes the token command.
func runTokenCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if err := applyConfigFile(cfg); err != nil {
		return err
	}

	if cmd.Flags().Changed("length") {
		if cfg.TokenLength, err = cmd.Flags().GetInt("length"); err != nil {
			return err
		}
	}
	if cfg.TokenLength < 0 {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidTokenLength)
	}

	count, err := cmd.Flags().GetInt("count")
	if err != nil {
		return err
	}
	if count < 1 {
		return fmt.Errorf("invalid token count %d: must be positive", count)
	}

	var sb strings.Builder
	for range count {
		token, err := mstoken.Generate(cfg.TokenLength)
		if err != nil {
			return err
		}
		sb.WriteString(token)
		sb.WriteString("\n")
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), sb.String())
	return err
}
