package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scmcore/config"
	"scmcore/www"
)

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print record counts for every table as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, lg, err := opts.openStore()
			if err != nil {
				return err
			}
			defer lg.Sync()
			defer st.Close()
			return printJSON(cmd, st.Statistics())
		},
	}
}

func newRankingCommand(opts *rootOptions) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Print suppliers ordered by reliability score, then cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, lg, err := opts.openStore()
			if err != nil {
				return err
			}
			defer lg.Sync()
			defer st.Close()
			ranked, err := st.SupplierPerformance()
			if err != nil {
				return err
			}
			if top > 0 && top < len(ranked) {
				ranked = ranked[:top]
			}
			return printJSON(cmd, map[string]any{"suppliers": ranked, "count": len(ranked)})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "only print the first n suppliers")
	return cmd
}

// newCheckCommand loads every table and fails when any cannot be read.
func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify every table loads; exits non-zero on failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, lg, err := opts.openStore()
			if err != nil {
				return err
			}
			defer lg.Sync()
			defer st.Close()

			out := cmd.OutOrStdout()
			failed := 0
			for _, t := range st.Check() {
				if t.Error != "" {
					failed++
					fmt.Fprintf(out, "FAIL  %-12s %s\n", t.Table, t.Error)
					continue
				}
				fmt.Fprintf(out, "ok    %-12s %d rows\n", t.Table, t.Rows)
			}
			if failed > 0 {
				return fmt.Errorf("%d table(s) unavailable", failed)
			}
			return nil
		},
	}
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for web.admin_password_hash",
		Long:  "Print a bcrypt hash for web.admin_password_hash. Reads the password from stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				sc := bufio.NewScanner(cmd.InOrStdin())
				if sc.Scan() {
					password = strings.TrimRight(sc.Text(), "\r")
				}
				if err := sc.Err(); err != nil {
					return err
				}
			}
			if password == "" {
				return errors.New("empty password")
			}
			hash, err := www.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newInitConfigCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a config file with default settings to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.ConfigPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", opts.ConfigPath)
			}
			if err := config.Defaults().Save(opts.ConfigPath); err != nil {
				return fmt.Errorf("write %s: %w", opts.ConfigPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.ConfigPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
