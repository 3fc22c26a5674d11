package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/andrei-cloud/asyncnet"
	"github.com/andrei-cloud/asyncnet/server"
	"github.com/stretchr/testify/require"
)

func startAcceptor(t *testing.T, mode string) *server.Acceptor {
	t.Helper()

	cfg := server.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	a := server.NewAcceptor(cfg)
	a.SetListener(newHandler(mode, a, &asyncnet.NoopLogger{}))
	require.NoError(t, a.Start())
	t.Cleanup(func() { _ = a.Stop() })

	return a
}

func clientConfigFor(t *testing.T, a *server.Acceptor) *FileConfig {
	t.Helper()

	cfg := DefaultFileConfig()
	addr, ok := a.Addr().(*net.TCPAddr)
	require.True(t, ok)
	cfg.Client.Port = addr.Port

	return cfg
}

func TestEchoRoundTrip(t *testing.T) {
	a := startAcceptor(t, modeEcho)
	cfg := clientConfigFor(t, a)

	var out bytes.Buffer
	err := runClient(context.Background(), cfg, &asyncnet.NoopLogger{}, "", strings.NewReader("hello\nworld\n"), &out)
	require.NoError(t, err)
	require.Equal(t, "hello\nworld\n", out.String())
}

func TestChatBroadcastUsesNickname(t *testing.T) {
	a := startAcceptor(t, modeChat)
	cfg := clientConfigFor(t, a)

	var out bytes.Buffer
	err := runClient(context.Background(), cfg, &asyncnet.NoopLogger{}, "ann", strings.NewReader("hi\n"), &out)
	require.NoError(t, err)
	require.Equal(t, "ann: hi\n", out.String())
}

func TestConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := DefaultFileConfig()
	cfg.Client.Port = port
	cfg.Client.ConnectTimeout = time.Second

	err = runClient(context.Background(), cfg, &asyncnet.NoopLogger{}, "", strings.NewReader(""), &bytes.Buffer{})
	require.ErrorIs(t, err, asyncnet.ErrConnectFailure)
}
