// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/artifacts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/config"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/handlers"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/middleware"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/onramp"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
)

// Initialize wires the gateway for one marketplace node. Catalog reads are
// open; everything that writes to the ledger sits behind operator auth.
func Initialize(node *flows.Node, cfg *config.Config, logger *logrus.Logger) (*gin.Engine, error) {
	artifactStore, err := artifacts.NewStore(cfg)
	if err != nil {
		return nil, err
	}
	onrampService := onramp.NewService(node, cfg)

	authHandler := handlers.NewAuthHandler(cfg)
	nodeHandler := handlers.NewNodeHandler(node)
	offerHandler := handlers.NewOfferHandler(node)
	marketplaceHandler := handlers.NewMarketplaceHandler(node)
	cashHandler := handlers.NewCashHandler(node, onrampService, cfg)
	artifactHandler := handlers.NewArtifactHandler(artifactStore)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", nodeHandler.Health)

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
		}

		node := v1.Group("/node")
		node.Use(middleware.AuthRequired())
		{
			node.GET("/me", nodeHandler.Me)
			node.GET("/peers", nodeHandler.Peers)
		}

		marketplace := v1.Group("/marketplace")
		{
			marketplace.GET("/pkgs", marketplaceHandler.GetPkgs)
			marketplace.GET("/pkgs/:id", marketplaceHandler.GetPkg)
			marketplace.GET("/vnfs", marketplaceHandler.GetVnfs)
			marketplace.GET("/vnfs/:id", marketplaceHandler.GetVnf)

			protected := marketplace.Group("")
			protected.Use(middleware.AuthRequired(), middleware.FlowRateLimit())
			{
				protected.POST("/pkgs/:id/buy", marketplaceHandler.BuyPkg)
				protected.POST("/vnfs/:id/buy", marketplaceHandler.BuyVnf)
			}
		}

		pkgs := v1.Group("/pkgs")
		pkgs.Use(middleware.AuthRequired(), middleware.FlowRateLimit())
		{
			pkgs.POST("", offerHandler.RegisterPkg)
			pkgs.PUT("/:id", offerHandler.UpdatePkg)
			pkgs.DELETE("/:id", offerHandler.DeletePkg)
		}

		vnfs := v1.Group("/vnfs")
		vnfs.Use(middleware.AuthRequired(), middleware.FlowRateLimit())
		{
			vnfs.POST("", offerHandler.CreateVnf)
		}

		feeAgreements := v1.Group("/fee-agreements")
		feeAgreements.Use(middleware.AuthRequired())
		{
			feeAgreements.GET("", cashHandler.GetFeeAgreements)
			feeAgreements.POST("", middleware.FlowRateLimit(), offerHandler.EstablishFeeAgreement)
		}

		licenses := v1.Group("/licenses")
		licenses.Use(middleware.AuthRequired())
		{
			licenses.GET("/pkgs", marketplaceHandler.GetPkgLicenses)
			licenses.GET("/vnfs", marketplaceHandler.GetVnfLicenses)
		}

		cash := v1.Group("/cash")
		cash.Use(middleware.AuthRequired())
		{
			cash.GET("/balance", cashHandler.GetBalance)
			cash.POST("/self-issue", middleware.FlowRateLimit(), cashHandler.SelfIssue)
		}

		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/intent", cashHandler.CreatePaymentIntent)
			payments.POST("/confirm", middleware.FlowRateLimit(), cashHandler.ConfirmPayment)
		}

		artifactRoutes := v1.Group("/artifacts")
		artifactRoutes.Use(middleware.AuthRequired())
		{
			artifactRoutes.POST("/archives", artifactHandler.UploadArchive)
			artifactRoutes.POST("/images", artifactHandler.UploadImage)
			artifactRoutes.GET("/download-url", artifactHandler.GetDownloadURL)
		}
	}

	return r, nil
}
