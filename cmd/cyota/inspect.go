package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-cyacd-ota/cyacd"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Show the header and row layout of .cyacd images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			fw, err := cyacd.Parse(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			printImage(os.Stdout, path, fw)
		}
		return nil
	},
}

// arraySummary describes the rows of one flash array.
type arraySummary struct {
	ArrayID byte
	Rows    int
	MinRow  uint16
	MaxRow  uint16
	Bytes   int
}

func summarize(fw *cyacd.Firmware) []arraySummary {
	byArray := make(map[byte]*arraySummary)
	for _, row := range fw.Rows {
		s, ok := byArray[row.ArrayID]
		if !ok {
			s = &arraySummary{ArrayID: row.ArrayID, MinRow: row.RowNum, MaxRow: row.RowNum}
			byArray[row.ArrayID] = s
		}
		s.Rows++
		s.Bytes += len(row.Data)
		if row.RowNum < s.MinRow {
			s.MinRow = row.RowNum
		}
		if row.RowNum > s.MaxRow {
			s.MaxRow = row.RowNum
		}
	}

	out := make([]arraySummary, 0, len(byArray))
	for _, s := range byArray {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArrayID < out[j].ArrayID })
	return out
}

func printImage(w io.Writer, path string, fw *cyacd.Firmware) {
	cyan := color.New(color.FgCyan).Add(color.Bold).SprintFunc()

	fmt.Fprintln(w, cyan(path))
	fmt.Fprintf(w, "  silicon id:  %s\n", fw.Header.SiliconID)
	fmt.Fprintf(w, "  silicon rev: %s\n", fw.Header.SiliconRev)
	fmt.Fprintf(w, "  checksum:    %s (%s)\n", fw.Header.ChecksumType, fw.Header.ChecksumKind())
	fmt.Fprintf(w, "  rows:        %d in %d groups\n\n", len(fw.Rows), len(fw.RowGroups))

	tw := new(tabwriter.Writer)
	tw.Init(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "  array\trows\tfirst\tlast\tbytes")
	for _, s := range summarize(fw) {
		fmt.Fprintf(tw, "  %d\t%d\t0x%04X\t0x%04X\t%d\n", s.ArrayID, s.Rows, s.MinRow, s.MaxRow, s.Bytes)
	}
	tw.Flush()
	fmt.Fprintln(w)
}
