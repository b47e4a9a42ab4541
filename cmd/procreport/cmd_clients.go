package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"procreport/internal/catalog"
	"procreport/internal/format"
	"procreport/internal/store"
)

var clientsFlags struct {
	format string
}

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List client accounts and whether the skip list excludes them",
	Long: `Lists every client account (API key and name) from the database and marks
the ones the skip list excludes from the report. Useful when editing the
skip list, which accepts either column.`,
	Args: cobra.NoArgs,
	RunE: runClients,
}

func init() {
	clientsCmd.Flags().StringVar(&clientsFlags.format, "format", "text", "Table format: text, markdown")
}

func runClients(cmd *cobra.Command, _ []string) error {
	cfg := loaded
	skip, err := catalog.LoadSkipSet(cfg.SkipList)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer st.Close()

	clients, err := st.Clients(cmd.Context())
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(clients))
	for k := range clients {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tb := format.NewTable(format.ParseMode(clientsFlags.format))
	tb.Header("API key", "Client", "Skipped")
	skipped := 0
	for _, k := range keys {
		mark := ""
		if skip.Skips(catalog.Record{ClientKey: k, ClientName: clients[k]}) {
			mark = "yes"
			skipped++
		}
		tb.Row(k, clients[k], mark)
	}
	tb.Footer("Total", len(keys), skipped)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tb.String())
	return nil
}
