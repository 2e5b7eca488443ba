package app

import (
	"fmt"
	"math/big"
	"time"

	"oncult-backend/internal/clients"
	"oncult-backend/internal/config"
	"oncult-backend/internal/db"
	"oncult-backend/internal/handlers"
	"oncult-backend/internal/repository"
	"oncult-backend/internal/router"
	"oncult-backend/internal/services"
	"oncult-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceContainer wires the whole service graph from config.
type ServiceContainer struct {
	DB   *gorm.DB
	NATS *clients.NATSClient

	Registry *utils.ChainRegistry
	Wallet   *services.KeyWallet
	Hub      *services.ProgressHub

	Items     repository.ItemRepository
	Purchases repository.PurchaseRepository

	Orchestrator *services.GatewayOrchestrator
	Minter       *services.ReceiptMinter
	Purchase     *services.PurchaseService
}

// InitializeContainer builds every service from the loaded config.
// NATS is optional: a connect failure logs a warning and the service
// runs without event publishing.
func InitializeContainer() (*ServiceContainer, error) {
	cfg := config.AppConfig
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	c := &ServiceContainer{Registry: utils.GlobalChainRegistry}

	gdb, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	c.DB = gdb
	c.Items = repository.NewItemRepository(gdb)
	c.Purchases = repository.NewPurchaseRepository(gdb)

	if cfg.NATS.URL != "" {
		natsClient, err := clients.NewNATSClient(cfg.NATS.URL, cfg.NATS.StreamName, 5*time.Second)
		if err != nil {
			logrus.WithError(err).Warn("NATS unavailable; events disabled")
		} else {
			c.NATS = natsClient
		}
	}

	wallet, err := services.NewKeyWallet(cfg.Wallet.PrivateKey, c.Registry, cfg.Chains.RPCOverrides, utils.BaseSepoliaChainID)
	if err != nil {
		return nil, fmt.Errorf("init wallet: %w", err)
	}
	c.Wallet = wallet

	gatewayWallet := common.HexToAddress(cfg.Gateway.WalletContract)
	gatewayMinter := common.HexToAddress(cfg.Gateway.MinterContract)
	feeRecipient := common.HexToAddress(cfg.Gateway.FeeRecipient)

	maxFee, ok := new(big.Int).SetString(cfg.Gateway.MaxFee, 10)
	if !ok {
		return nil, fmt.Errorf("invalid gateway max_fee: %q", cfg.Gateway.MaxFee)
	}
	builder := services.NewIntentBuilder(c.Registry, gatewayWallet, gatewayMinter, maxFee)
	gatewayClient := clients.NewGatewayClient(cfg.Gateway.APIBase, cfg.Gateway.APIKey, cfg.GatewayTimeout())
	c.Minter = services.NewReceiptMinter(c.Registry, cfg.Metadata.ImageURL, cfg.Metadata.Description)
	c.Hub = services.NewProgressHub()

	c.Orchestrator = services.NewGatewayOrchestrator(
		c.Registry, builder, gatewayClient, c.Minter, wallet, c.Hub,
		gatewayWallet, gatewayMinter, feeRecipient,
	)
	c.Purchase = services.NewPurchaseService(c.Purchases, c.Registry, c.NATS)

	return c, nil
}

// BuildRouter assembles the HTTP surface on top of the container.
func (c *ServiceContainer) BuildRouter() *gin.Engine {
	h := router.Handlers{
		Auth:      handlers.NewAuthHandler(),
		AdminAuth: handlers.NewAdminAuthHandler(),
		Payment: handlers.NewPaymentHandler(
			c.Orchestrator, c.Minter, c.Wallet, c.Items, c.Purchase, c.Registry,
		),
		Item:     handlers.NewItemHandler(c.Items),
		Purchase: handlers.NewPurchaseHandler(c.Purchases),
		WS:       handlers.NewWebSocketHandler(c.Hub),
	}

	var natsConn *nats.Conn
	if c.NATS != nil {
		natsConn = c.NATS.Conn()
	}
	return router.SetupRouter(c.DB, natsConn, h)
}

// Cleanup releases external connections.
func (c *ServiceContainer) Cleanup() {
	if c.NATS != nil {
		c.NATS.Close()
	}
	if c.Wallet != nil {
		c.Wallet.Close()
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
