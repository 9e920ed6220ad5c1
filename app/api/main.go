package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/go-playground/validator/v10"
	ipfsapi "github.com/ipfs/go-ipfs-api"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/goroutine"
	"github.com/reimerr12/nft-marketplace/base/log"
	"github.com/reimerr12/nft-marketplace/base/tracker"
	bValidator "github.com/reimerr12/nft-marketplace/base/validator"
	"github.com/reimerr12/nft-marketplace/domain"
	catalogdomain "github.com/reimerr12/nft-marketplace/domain/catalog"
	mmiddleware "github.com/reimerr12/nft-marketplace/middleware"
	"github.com/reimerr12/nft-marketplace/service/cache"
	"github.com/reimerr12/nft-marketplace/service/cache/provider/primitive"
	"github.com/reimerr12/nft-marketplace/service/chain"
	"github.com/reimerr12/nft-marketplace/service/chain/contract"
	"github.com/reimerr12/nft-marketplace/service/ens"
	"github.com/reimerr12/nft-marketplace/service/ipfs"
	catalog_delivery "github.com/reimerr12/nft-marketplace/stores/catalog/delivery/http"
	catalog_usecase "github.com/reimerr12/nft-marketplace/stores/catalog/usecase"
	hc_delivery "github.com/reimerr12/nft-marketplace/stores/healthcheck/delivery/http"
	hc_repo "github.com/reimerr12/nft-marketplace/stores/healthcheck/repository"
	hc_usecase "github.com/reimerr12/nft-marketplace/stores/healthcheck/usecase"
	metadata_usecase "github.com/reimerr12/nft-marketplace/stores/metadata/usecase"
)

func init() {
	configFile := pflag.String("config", "infra/configs/config.yaml", "path to the config file")
	pflag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configFile)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	defer log.Sync()

	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init chain service
	context.Info("init chain service")
	rpcUrl := viper.GetString("chain.rpcUrl")
	chainService, err := chain.NewClient(context, &chain.ClientCfg{
		RpcUrl:         rpcUrl,
		FreshAttempts:  viper.GetInt("chain.freshAttempts"),
		FreshRetryStep: viper.GetDuration("chain.freshRetryStep"),
	})
	if err != nil {
		context.WithField("err", err).Panic("failed to init chain service")
	}

	marketplace, err := contract.NewMarketplace(chainService, contract.ReadContext{
		MarketplaceAddress: domain.Address(viper.GetString("chain.marketplace")),
	})
	if err != nil {
		context.WithField("err", err).Panic("failed to init marketplace contract")
	}

	rpcEthClient, err := ethclient.Dial(rpcUrl)
	if err != nil {
		context.WithField("err", err).Panic("failed to dial rpc")
	}

	// init ipfs service
	context.Info("init ipfs service")
	var nodeApi *ipfsapi.Shell
	if nodeApiUrl := viper.GetString("ipfs.nodeApi"); len(nodeApiUrl) > 0 {
		nodeApi = ipfsapi.NewShell(nodeApiUrl)
	}
	ipfsService := ipfs.New(&ipfs.ServiceCfg{
		Gateway:     viper.GetString("ipfs.gateway"),
		HttpClient:  http.Client{},
		Timeout:     viper.GetDuration("ipfs.timeout"),
		MaxInflight: viper.GetInt("ipfs.maxInflight"),
		MinSpacing:  viper.GetDuration("ipfs.minSpacing"),
		NodeApi:     nodeApi,
	})

	metadataCache := cache.New(cache.ServiceConfig{
		Ttl:   viper.GetDuration("metadata.cacheTtl"),
		Pfx:   "metadata",
		Cache: primitive.NewPrimitive("metadata", viper.GetInt("metadata.cacheSizeMb")),
	})
	metadataUseCase := metadata_usecase.NewMetadataUseCase(&metadata_usecase.MetadataUseCaseCfg{
		Ipfs:        ipfsService,
		HttpClient:  http.Client{},
		HttpTimeout: viper.GetDuration("http.timeout"),
		Cache:       metadataCache,
	})

	// ens annotation is best-effort, keep going without it
	ensService, err := ens.New(rpcUrl)
	if err != nil {
		context.WithField("err", err).Warn("failed to init ens service")
		ensService = nil
	}

	// init refresh tracker
	var refreshTracker *tracker.RefreshTracker
	if wsUrl := viper.GetString("chain.wsUrl"); len(wsUrl) > 0 {
		wsClient, err := ethclient.Dial(wsUrl)
		if err != nil {
			context.WithField("err", err).Warn("failed to dial ws endpoint, event refresh disabled")
		} else {
			refreshTracker = tracker.NewRefreshTracker(&tracker.RefreshTrackerCfg{
				WsClient:        wsClient,
				ContractAddress: domain.Address(viper.GetString("chain.marketplace")),
				Debounce:        viper.GetDuration("tracker.debounce"),
				PollInterval:    viper.GetDuration("tracker.pollInterval"),
			})
			refreshTracker.Start(context)
			defer refreshTracker.Stop()
		}
	}

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(rpcEthClient)
	healthCheck := hc_usecase.New(hcRepo)

	catalogUseCase := catalog_usecase.NewCatalogUseCase(&catalog_usecase.CatalogUseCaseCfg{
		Market:     marketplace,
		Metadata:   metadataUseCase,
		Ens:        ensService,
		Tracker:    refreshTracker,
		ChunkSize:  viper.GetInt("catalog.chunkSize"),
		ChunkDelay: viper.GetDuration("catalog.chunkDelay"),
	})

	// ledger mutations re-synchronize the shared active scope; account
	// scopes refresh on their next read
	unsubscribe := catalogUseCase.Subscribe(func() {
		goroutine.RecoverableGo(func() {
			if _, err := catalogUseCase.Synchronize(ctx.Background(), catalogdomain.ActiveScope(), true); err != nil {
				log.Log().WithField("err", err).Warn("event-driven refresh failed")
			}
		})
	})
	defer unsubscribe()

	// warm the active scope so the first query does not pay the full
	// hydration cost
	goroutine.RecoverableGo(func() {
		if _, err := catalogUseCase.Synchronize(ctx.Background(), catalogdomain.ActiveScope(), false); err != nil {
			log.Log().WithField("err", err).Warn("initial synchronization failed")
		}
	})

	hc_delivery.New(e, healthCheck)
	catalog_delivery.New(e, catalogUseCase)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
