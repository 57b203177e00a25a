package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/comigor/duochat/internal/conversation"
	"github.com/comigor/duochat/internal/session"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	var fromPeer bool
	cmd := &cobra.Command{
		Use:   "send [--peer] <text...>",
		Short: "Append a message to the conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore(store, log)

			text := strings.Join(args, " ")
			var msg conversation.Message
			if fromPeer {
				text = strings.TrimSpace(text)
				if text == "" {
					return session.ErrEmptyInput
				}
				msg = conversation.New(text, time.Now(), false)
				if err := store.Append(cmd.Context(), msg); err != nil {
					return err
				}
			} else {
				sess, err := session.New(cmd.Context(), store, log, session.WithAnimationDelay(0))
				if err != nil {
					return err
				}
				defer sess.Close()
				sess.SetInput(text)
				if msg, err = sess.Send(cmd.Context()); err != nil {
					return err
				}
			}

			log.Info("message appended", "id", msg.ID, "sender", msg.Sender())
			fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&fromPeer, "peer", "p", false, "send as the peer instead of the local user")
	return cmd
}
