package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

type directoryCheck struct {
	label  string
	path   string
	ok     bool
	detail string
	free   string
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the configured directories are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checks := []directoryCheck{
				checkDirectory("inbox", cfg.Paths.InboxDir),
				checkDirectory("outbox", cfg.Paths.OutboxDir),
				checkDirectory("logs", cfg.Paths.LogDir),
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(checks))
			healthy := true
			for _, check := range checks {
				if !check.ok {
					healthy = false
				}
				rows = append(rows, []string{
					check.label,
					check.path,
					statusLabel(check.ok, colorize),
					check.detail,
					check.free,
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Directory", "Path", "Status", "Detail", "Free"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))

			if !healthy {
				return errors.New("one or more directory checks failed")
			}
			fmt.Fprintln(out, "All directory checks passed.")
			return nil
		},
	}
}

func checkDirectory(label, path string) directoryCheck {
	check := directoryCheck{label: label, path: path}

	info, err := os.Stat(path)
	if err != nil {
		check.detail = "missing"
		return check
	}
	if !info.IsDir() {
		check.detail = "not a directory"
		return check
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		check.detail = fmt.Sprintf("no read/write access: %v", err)
		return check
	}

	check.ok = true
	check.detail = "writable"
	check.free = freeSpace(path)
	return check
}

func freeSpace(path string) string {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return "unknown"
	}
	free := uint64(stat.Bavail) * uint64(stat.Bsize)
	return formatBytes(free)
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
