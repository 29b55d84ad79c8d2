// Package app wires the chatserver's pieces together the way the teacher's
// internal/app.App did: one struct holding the long-lived dependencies, a
// constructor, and a Run(ctx) that starts everything and blocks until ctx
// is canceled. The UDP framing here (client-facing and server-facing
// sockets, 8 KiB datagrams) is explicitly outside the broker core per
// spec §1; this package is where that framing lives.
package app

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sony-level/chatserver-lab/internal/audit"
	"github.com/sony-level/chatserver-lab/internal/broker"
	"github.com/sony-level/chatserver-lab/internal/config"
	"github.com/sony-level/chatserver-lab/internal/diag"
	"github.com/sony-level/chatserver-lab/internal/discovery"
	"github.com/sony-level/chatserver-lab/internal/ids"
)

// datagramBufferSize bounds a single client or server UDP read, matching
// the reference transport's 8 KiB framing.
const datagramBufferSize = 8 * 1024

// App owns the broker and the sockets/services layered around it.
type App struct {
	cfg    config.ServerConfig
	logger *slog.Logger

	broker     *broker.Broker
	auditl     *audit.Log
	advert     *discovery.Advertisement
	peers      *peerDirectory
	serverConn net.PacketConn
}

// New constructs an App; nothing is opened or listening yet.
func New(cfg config.ServerConfig, logger *slog.Logger) *App {
	b := broker.New(ids.NewServerId(),
		broker.WithFederation(!cfg.FederationOff),
		broker.WithLogger(logger))
	return &App{cfg: cfg, logger: logger, broker: b}
}

// Run opens the audit database, starts mDNS advertisement, the client and
// server UDP listeners, and the stats logger, then blocks until ctx is
// canceled or any component returns an error.
func (a *App) Run(ctx context.Context) error {
	auditl, err := audit.Open(a.cfg.AuditDBPath)
	if err != nil {
		return err
	}
	a.auditl = auditl
	defer auditl.Close()

	if err := auditl.InitSchema(ctx); err != nil {
		return err
	}

	advert, err := discovery.Advertise(a.cfg.ServerPort, a.cfg.ClientPort, a.broker.ServerID().String())
	if err != nil {
		a.logger.Warn("mdns advertisement failed to start", "error", err)
	} else {
		a.advert = advert
		defer advert.Shutdown()
	}

	clientConn, err := net.ListenPacket("udp", net.JoinHostPort(a.cfg.ClientListen, strconv.Itoa(a.cfg.ClientPort)))
	if err != nil {
		return err
	}
	defer clientConn.Close()

	serverConn, err := net.ListenPacket("udp", net.JoinHostPort(a.cfg.ServerListen, strconv.Itoa(a.cfg.ServerPort)))
	if err != nil {
		return err
	}
	defer serverConn.Close()
	a.serverConn = serverConn

	a.peers = newPeerDirectory()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.serveClients(gctx, clientConn) })
	g.Go(func() error { return a.serveServers(gctx, serverConn) })
	g.Go(func() error {
		diag.Run(gctx, a.logger, 30*time.Second, time.Now(), a.snapshot)
		return nil
	})
	g.Go(func() error {
		a.peers.run(gctx, 15*time.Second)
		return nil
	})
	g.Go(func() error {
		a.announceLoop(gctx, 20*time.Second)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		clientConn.Close()
		serverConn.Close()
		return nil
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}

func (a *App) snapshot() diag.Stats {
	local, remote, routes, pending := a.broker.Counts()
	return diag.Stats{LocalClients: local, RemoteClients: remote, Routes: routes, Pending: pending}
}
