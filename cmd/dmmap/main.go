// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Command dmmap builds and queries disk-backed dense-key multimaps with
// uint64 keys.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dmmap/dmmap"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var valueSize int

var rootCmd = &cobra.Command{
	Use:   "dmmap [command] (flags)",
	Short: "dmmap build/query tool",
	Long:  ``,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(
		buildCmd,
		getCmd,
		statCmd,
		benchCmd,
	)

	for _, cmd := range []*cobra.Command{buildCmd, getCmd, statCmd, benchCmd} {
		cmd.Flags().IntVar(
			&valueSize, "value-size", 8, "fixed value width in bytes")
	}
	benchCmd.Flags().IntVarP(
		&benchCount, "count", "c", 100000, "number of point queries to issue")
	benchCmd.Flags().Uint64Var(
		&benchSeed, "seed", 1, "pseudo-random seed for query keys")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "append records from stdin, index, and save",
	Long: `
Reads whitespace-separated "key value" lines from stdin, where key is a
decimal uint64 and value is a string padded with zero bytes to the value
width. Appends all records, builds the index, and saves the sidecar.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		m, err := dmmap.Open[uint64](args[0], &dmmap.Options{ValueSize: valueSize})
		if err != nil {
			return err
		}
		defer m.Close()
		if err := m.OpenWriter(); err != nil {
			return err
		}
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return fmt.Errorf("malformed line %q: want \"key value\"", line)
			}
			key, err := strconv.ParseUint(fields[0], 10, 64)
			if err != nil {
				return err
			}
			if len(fields[1]) > valueSize {
				return fmt.Errorf("value %q longer than value width %d", fields[1], valueSize)
			}
			value := make([]byte, valueSize)
			copy(value, fields[1])
			if err := m.Append(key, value); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		if err := m.CloseWriter(); err != nil {
			return err
		}
		if err := m.Index(); err != nil {
			return err
		}
		written, err := m.Save()
		if err != nil {
			return err
		}
		fmt.Printf("indexed %s, sidecar %s (%d bytes)\n", args[0], m.IndexPath(), written)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <file> <key>",
	Short: "print the values recorded for a key, one hex line each",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		key, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return err
		}
		m, err := dmmap.Load[uint64](args[0], &dmmap.Options{ValueSize: valueSize})
		if err != nil {
			return err
		}
		defer m.Close()
		vals, err := m.Values(key)
		if err != nil {
			return err
		}
		for _, v := range vals {
			fmt.Println(hex.EncodeToString(v))
		}
		return nil
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <file>",
	Short: "print record and index statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		m, err := dmmap.Load[uint64](args[0], &dmmap.Options{ValueSize: valueSize})
		if err != nil {
			return err
		}
		defer m.Close()
		count, err := m.RecordCount()
		if err != nil {
			return err
		}
		maxKey, err := m.MaxKey()
		if err != nil {
			return err
		}
		sidecar, err := os.Stat(m.IndexPath())
		if err != nil {
			return err
		}
		tbl := tablewriter.NewWriter(os.Stdout)
		tbl.SetHeader([]string{"Property", "Value"})
		tbl.Append([]string{"records", fmt.Sprintf("%d", count)})
		tbl.Append([]string{"record width", fmt.Sprintf("%d", m.RecordSize())})
		tbl.Append([]string{"value width", fmt.Sprintf("%d", valueSize)})
		tbl.Append([]string{"max key", fmt.Sprintf("%d", maxKey)})
		tbl.Append([]string{"key domain", fmt.Sprintf("[0, %d]", maxKey)})
		tbl.Append([]string{"sidecar bytes", fmt.Sprintf("%d", sidecar.Size())})
		tbl.Render()
		return nil
	},
}
