package main

import (
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/comigor/duochat/internal/conversation"
)

const listTimeLayout = "2006-01-02 15:04:05"

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the conversation with its layout decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore(store, log)

			messages, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			writeTable(cmd.OutOrStdout(), conversation.Rows(messages), time.Now())
			return nil
		},
	}
}

// writeTable prints one line per row: when, who, how it is drawn and the text.
func writeTable(w io.Writer, rows []conversation.Row, now time.Time) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Sender", "Kind", "Header", "Grouped", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	table.AppendBulk(lo.Map(rows, func(row conversation.Row, _ int) []string {
		header := ""
		if row.ShowHeader {
			header = conversation.HeaderLabel(row.Message.Timestamp, now)
		}
		return []string{
			row.Message.Timestamp.In(now.Location()).Format(listTimeLayout),
			row.Message.Sender(),
			row.Kind.String(),
			header,
			strconv.FormatBool(row.Grouped),
			row.Message.Text,
		}
	}))
	table.Render()
}
