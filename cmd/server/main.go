// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/config"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/database"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/notary"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/router"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/signing"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	logger := logrus.New()
	if cfg.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	identity, err := newIdentity(cfg.Node.Name, cfg.Node.PrivateKeySeed)
	if err != nil {
		logger.Fatal("Failed to load node identity: ", err)
	}

	nodeVault, cleanup, err := newVault(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize vault: ", err)
	}
	defer cleanup()

	// All participants in this process share one bus and one notary.
	bus := transport.NewBus(cfg.Node.SessionTimeout, logger)
	ledgerNotary := notary.NewLocal(logger)

	node := bootNode(cfg, identity, nodeVault, bus, ledgerNotary, logger)

	// A local network needs the repository node in-process; boot it and
	// any configured peers with in-memory vaults.
	peerNames := cfg.Node.LocalNetPeers
	if cfg.Node.Name != cfg.Node.RepositoryNode {
		peerNames = append([]string{cfg.Node.RepositoryNode}, peerNames...)
	}
	peerNodes := make([]*flows.Node, 0, len(peerNames))
	for _, name := range peerNames {
		peerIdentity, err := signing.NewIdentity(name)
		if err != nil {
			logger.Fatal("Failed to create peer identity: ", err)
		}
		peerCfg := *cfg
		peerCfg.Node.Name = name
		peer := bootNode(&peerCfg, peerIdentity, vault.NewMemory(), bus, ledgerNotary, logger)
		peerNodes = append(peerNodes, peer)
	}
	meshPeers(append([]*flows.Node{node}, peerNodes...))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := router.Initialize(node, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize router: ", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"node": cfg.Node.Name,
			"port": cfg.Server.Port,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exited")
}

func newIdentity(name, seedHex string) (*signing.Identity, error) {
	if seedHex != "" {
		return signing.NewIdentityFromSeed(name, seedHex)
	}
	return signing.NewIdentity(name)
}

func newVault(cfg *config.Config) (vault.Vault, func(), error) {
	if cfg.Database.Driver != "postgres" {
		return vault.NewMemory(), func() {}, nil
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	store, err := vault.NewGormStore(db)
	if err != nil {
		database.Close(db)
		return nil, nil, err
	}
	return store, func() { database.Close(db) }, nil
}

// bootNode registers a participant's vault with the notary and its
// responder handlers with the bus.
func bootNode(
	cfg *config.Config,
	identity *signing.Identity,
	v vault.Vault,
	bus *transport.Bus,
	ledgerNotary *notary.Local,
	logger *logrus.Logger,
) *flows.Node {
	party := identity.Party()
	node := flows.NewNode(cfg, identity, v, bus.DialerFor(party), ledgerNotary, logger)
	ledgerNotary.RegisterVault(party, v)
	for flow, handler := range node.Handlers() {
		bus.Register(party, flow, handler)
	}
	return node
}

func meshPeers(nodes []*flows.Node) {
	for _, a := range nodes {
		for _, b := range nodes {
			if a.Party().Name != b.Party().Name {
				a.AddPeer(b.Party())
			}
		}
	}
}
