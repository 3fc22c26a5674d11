package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrei-cloud/asyncnet"
	"github.com/andrei-cloud/asyncnet/client"
	"github.com/andrei-cloud/asyncnet/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func connectCmd(opts *rootOptions) *cobra.Command {
	var (
		host    string
		port    int
		timeout time.Duration
		nick    string
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Send lines from stdin as framed strings and print what comes back",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lg, err := opts.load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Client.Host = host
			}
			if flags.Changed("port") {
				cfg.Client.Port = port
			}
			if flags.Changed("timeout") {
				cfg.Client.ConnectTimeout = timeout
			}
			if err := cfg.validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runClient(ctx, cfg, lg, nick, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVarP(&port, "port", "p", server.DefaultPort, "server port")
	cmd.Flags().DurationVar(&timeout, "timeout", client.DefaultConnectTimeout, "connect timeout")
	cmd.Flags().StringVar(&nick, "nick", "", "chat nickname announced after connecting")

	return cmd
}

// runClient connects, then sends every line read from in until in is
// exhausted, ctx is canceled or the server hangs up.
func runClient(ctx context.Context, cfg *FileConfig, lg asyncnet.Logger, nick string, in io.Reader, out io.Writer) error {
	connector := client.NewConnector(cfg.clientConfig(lg))
	connector.SetListener(asyncnet.ListenerFuncs{
		ReceiveComplete: func(buf *asyncnet.ByteBuffer) {
			if s, ok := buf.TryReadString(); ok {
				fmt.Fprintln(out, s)
				return
			}
			fmt.Fprintf(out, "%x\n", buf.AvailableData())
		},
	})

	conn, err := connector.Dial(ctx, cfg.Client.Host, cfg.Client.Port)
	if err != nil {
		return err
	}
	defer func() {
		connector.Disconnect()
		conn.Wait()
	}()

	if nick != "" {
		if err := conn.Send(asyncnet.FromString(nickCommand + nick).Bytes()); err != nil {
			return err
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-conn.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-conn.Done():
			return errors.New("connection closed by server")
		case line, ok := <-lines:
			if !ok {
				// Give outstanding replies a moment before hanging up.
				select {
				case <-conn.Done():
				case <-time.After(200 * time.Millisecond):
				}
				return nil
			}
			if err := conn.Send(asyncnet.FromString(line).Bytes()); err != nil {
				return err
			}
		}
	}
}
