package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andrei-cloud/asyncnet"
	"github.com/andrei-cloud/asyncnet/internal/admin"
	"github.com/andrei-cloud/asyncnet/server"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const nickCommand = "/nick "

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		host      string
		port      int
		maxConns  int
		mode      string
		adminAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept framed connections and echo or broadcast their messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, lg, err := opts.load()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("max-conns") {
				cfg.Server.MaxConns = maxConns
			}
			if flags.Changed("mode") {
				cfg.Server.Mode = mode
			}
			if flags.Changed("admin") {
				cfg.Server.AdminAddr = adminAddr
			}
			if err := cfg.validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, lg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "interface to listen on")
	cmd.Flags().IntVarP(&port, "port", "p", server.DefaultPort, "port to listen on")
	cmd.Flags().IntVar(&maxConns, "max-conns", server.DefaultMaxConns, "maximum concurrent clients, 0 for no limit")
	cmd.Flags().StringVar(&mode, "mode", modeEcho, "message handling: echo or chat")
	cmd.Flags().StringVar(&adminAddr, "admin", "", "address for the metrics and health endpoints")

	return cmd
}

// runServer runs the acceptor, and the admin endpoint when configured, until
// ctx is canceled or one of them fails.
func runServer(ctx context.Context, cfg *FileConfig, lg asyncnet.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := asyncnet.NewMetrics(reg, "asyncnet")

	acceptor := server.NewAcceptor(cfg.serverConfig(lg, metrics))
	acceptor.SetListener(newHandler(cfg.Server.Mode, acceptor, lg))

	if err := acceptor.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	var adminSrv *http.Server
	if cfg.Server.AdminAddr != "" {
		adminSrv = &http.Server{
			Addr:              cfg.Server.AdminAddr,
			Handler:           admin.NewRouter(acceptor, reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			lg.Infof("admin endpoint listening on %s", cfg.Server.AdminAddr)
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "admin endpoint")
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()

		if adminSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := adminSrv.Shutdown(shutdownCtx); err != nil {
				lg.Warnf("admin shutdown: %v", err)
			}
		}

		return acceptor.Stop()
	})

	return g.Wait()
}

// newHandler returns the acceptor listener for the given mode.
func newHandler(mode string, acceptor *server.Acceptor, lg asyncnet.Logger) server.Listener {
	h := server.ListenerFuncs{
		ServerStarted: func(at time.Time) {
			lg.Infof("server started at %s in %s mode", at.Format(time.RFC3339), mode)
		},
		ServerStopped: func(at time.Time) {
			lg.Infof("server stopped at %s", at.Format(time.RFC3339))
		},
		ClientConnected: func(c *asyncnet.Connection) {
			lg.Infof("%s joined (%s)", c, c.ConnectionType())
		},
		ClientDisconnected: func(c *asyncnet.Connection) {
			lg.Infof("conn#%d left", c.ID())
		},
	}

	if mode == modeChat {
		h.ReceiveComplete = func(buf *asyncnet.ByteBuffer, c *asyncnet.Connection) {
			relay(acceptor, buf, c, lg)
		}
	} else {
		h.ReceiveComplete = func(buf *asyncnet.ByteBuffer, c *asyncnet.Connection) {
			if err := c.SendBuffer(buf); err != nil {
				lg.Warnf("echo to %s: %v", c, err)
			}
		}
	}

	return h
}

// relay decodes a chat line and broadcasts it to every client, tagged with
// the sender's nickname. "/nick name" sets the nickname instead.
func relay(acceptor *server.Acceptor, buf *asyncnet.ByteBuffer, c *asyncnet.Connection, lg asyncnet.Logger) {
	line, err := buf.ReadString()
	if err != nil {
		lg.Warnf("%s sent a malformed chat line: %v", c, err)
		return
	}

	if strings.HasPrefix(line, nickCommand) {
		nick := strings.TrimSpace(strings.TrimPrefix(line, nickCommand))
		if nick != "" {
			c.SetSerial(nick)
		}
		return
	}

	from := c.Serial()
	if from == "" {
		from = fmt.Sprintf("conn#%d", c.ID())
	}

	out := asyncnet.FromString(from + ": " + line)
	lg.Debugf("relaying %d bytes from %s to %d clients", out.Len(), from, acceptor.ClientCount())
	acceptor.Broadcast(out.Bytes())
}
