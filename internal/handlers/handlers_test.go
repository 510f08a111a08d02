package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/config"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/handlers"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/middleware"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/notary"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/signing"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

const (
	gwRepoName  = "O=RepositoryNode,L=Pisa,C=IT"
	gwDevName   = "O=DevTest,L=Turin,C=IT"
	gwBuyerName = "O=BuyerTest,L=Milan,C=IT"
)

type testGateway struct {
	cfg    *config.Config
	dev    *gin.Engine
	buyer  *gin.Engine
	devN   *flows.Node
	buyerN *flows.Node
}

func testConfig(name string) *config.Config {
	return &config.Config{
		Environment: "test",
		Node: config.NodeConfig{
			Name:           name,
			RepositoryNode: gwRepoName,
			SessionTimeout: 2 * time.Second,
		},
		Fee: config.FeeConfig{Percent: 10},
		JWT: config.JWTConfig{
			SecretKey:        "test-secret",
			AccessTokenTTL:   1,
			OperatorPassword: "operator-pass",
		},
		Payment: config.PaymentConfig{DefaultCurrency: "EUR"},
	}
}

// newTestGateway boots a three-party network and wraps the developer and
// buyer nodes in gin engines, skipping rate limiting so bursts of requests
// stay deterministic.
func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	bus := transport.NewBus(2*time.Second, logger)
	not := notary.NewLocal(logger)

	newNode := func(name string) *flows.Node {
		identity, err := signing.NewIdentity(name)
		require.NoError(t, err)
		v := vault.NewMemory()
		node := flows.NewNode(testConfig(name), identity, v, bus.DialerFor(identity.Party()), not, logger)
		not.RegisterVault(identity.Party(), v)
		for flow, handler := range node.Handlers() {
			bus.Register(identity.Party(), flow, handler)
		}
		return node
	}

	repo := newNode(gwRepoName)
	dev := newNode(gwDevName)
	buyer := newNode(gwBuyerName)
	for _, a := range []*flows.Node{repo, dev, buyer} {
		for _, b := range []*flows.Node{repo, dev, buyer} {
			if a != b {
				a.AddPeer(b.Party())
			}
		}
	}

	return &testGateway{
		cfg:    testConfig(gwDevName),
		dev:    newTestRouter(dev, testConfig(gwDevName)),
		buyer:  newTestRouter(buyer, testConfig(gwBuyerName)),
		devN:   dev,
		buyerN: buyer,
	}
}

func newTestRouter(node *flows.Node, cfg *config.Config) *gin.Engine {
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	nodeHandler := handlers.NewNodeHandler(node)
	offerHandler := handlers.NewOfferHandler(node)
	marketplaceHandler := handlers.NewMarketplaceHandler(node)
	cashHandler := handlers.NewCashHandler(node, nil, cfg)
	authHandler := handlers.NewAuthHandler(cfg)

	r := gin.New()
	r.GET("/health", nodeHandler.Health)
	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		protected := v1.Group("/node")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/me", nodeHandler.Me)
		}

		v1.GET("/marketplace/pkgs", marketplaceHandler.GetPkgs)
		v1.GET("/marketplace/pkgs/:id", marketplaceHandler.GetPkg)
		v1.GET("/marketplace/vnfs", marketplaceHandler.GetVnfs)
		v1.POST("/marketplace/pkgs/:id/buy", marketplaceHandler.BuyPkg)
		v1.POST("/marketplace/vnfs/:id/buy", marketplaceHandler.BuyVnf)

		v1.POST("/pkgs", offerHandler.RegisterPkg)
		v1.PUT("/pkgs/:id", offerHandler.UpdatePkg)
		v1.DELETE("/pkgs/:id", offerHandler.DeletePkg)
		v1.POST("/vnfs", offerHandler.CreateVnf)

		v1.POST("/fee-agreements", offerHandler.EstablishFeeAgreement)
		v1.GET("/fee-agreements", cashHandler.GetFeeAgreements)
		v1.GET("/cash/balance", cashHandler.GetBalance)
		v1.POST("/cash/self-issue", cashHandler.SelfIssue)
		v1.GET("/licenses/pkgs", marketplaceHandler.GetPkgLicenses)
	}
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func registerPkgRequestBody(price float64) map[string]interface{} {
	return map[string]interface{}{
		"name":        "firewall",
		"description": "Stateful firewall package",
		"version":     "1.0",
		"pkg_info_id": "pkg-info-1",
		"image_link":  "https://images.example.com/firewall.png",
		"pkg_type":    "VNF",
		"po_price": map[string]interface{}{
			"po_id":   "po-1",
			"po_name": "base",
			"price":   map[string]interface{}{"unit": "EUR", "value": price},
		},
	}
}

func establishFeeAgreement(t *testing.T, gw *testGateway) {
	t.Helper()
	w := doJSON(gw.dev, "POST", "/v1/fee-agreements", map[string]interface{}{"max_acceptable_fee": 20})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestLogin(t *testing.T) {
	gw := newTestGateway(t)

	w := doJSON(gw.dev, "POST", "/v1/auth/login", map[string]interface{}{
		"operator": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(gw.dev, "POST", "/v1/auth/login", map[string]interface{}{
		"operator": "alice",
		"password": "operator-pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	token := data["token"].(string)
	require.NotEmpty(t, token)

	claims, err := utils.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Operator)
	assert.Equal(t, gwDevName, claims.NodeName)
}

func TestAuthRequired(t *testing.T) {
	gw := newTestGateway(t)

	req := httptest.NewRequest("GET", "/v1/node/me", nil)
	w := httptest.NewRecorder()
	gw.dev.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateJWT("alice", gwDevName, 1)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/v1/node/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	gw.dev.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterPkgEndpoint(t *testing.T) {
	gw := newTestGateway(t)

	// Without a fee agreement the repository refuses the listing.
	w := doJSON(gw.dev, "POST", "/v1/pkgs", registerPkgRequestBody(1.0))
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	establishFeeAgreement(t, gw)

	w = doJSON(gw.dev, "POST", "/v1/pkgs", registerPkgRequestBody(1.0))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(gw.dev, "GET", "/v1/marketplace/pkgs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

	response := decodeResponse(t, w)
	offers := response["data"].([]interface{})
	require.Len(t, offers, 1)
	offer := offers[0].(map[string]interface{})
	assert.Equal(t, "firewall", offer["name"])
}

func TestRegisterPkgValidation(t *testing.T) {
	gw := newTestGateway(t)
	establishFeeAgreement(t, gw)

	body := registerPkgRequestBody(1.0)
	body["image_link"] = "not-a-url"
	w := doJSON(gw.dev, "POST", "/v1/pkgs", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeResponse(t, w)
	errObj := response["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
}

func TestGetPkgNotFound(t *testing.T) {
	gw := newTestGateway(t)

	w := doJSON(gw.dev, "GET", "/v1/marketplace/pkgs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(gw.dev, "GET", "/v1/marketplace/pkgs/6e7bcd27-2f4c-4b4e-b1fd-1b2c3d4e5f60", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuyPkgEndpoint(t *testing.T) {
	gw := newTestGateway(t)
	establishFeeAgreement(t, gw)

	w := doJSON(gw.dev, "POST", "/v1/pkgs", registerPkgRequestBody(1.0))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The buyer's catalog is served by the repository node over a
	// query session.
	w = doJSON(gw.buyer, "GET", "/v1/marketplace/pkgs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	offers := response["data"].([]interface{})
	require.Len(t, offers, 1)
	linearID := offers[0].(map[string]interface{})["linear_id"].(string)

	// Broke buyer gets a 402.
	w = doJSON(gw.buyer, "POST", fmt.Sprintf("/v1/marketplace/pkgs/%s/buy", linearID), nil)
	require.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())

	w = doJSON(gw.buyer, "POST", "/v1/cash/self-issue", map[string]interface{}{
		"quantity": 500,
		"currency": "EUR",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(gw.buyer, "POST", fmt.Sprintf("/v1/marketplace/pkgs/%s/buy", linearID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(gw.buyer, "GET", "/v1/licenses/pkgs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Total-Count"))

	w = doJSON(gw.buyer, "GET", "/v1/cash/balance?currency=EUR", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response = decodeResponse(t, w)
	balance := response["data"].(map[string]interface{})
	assert.Equal(t, float64(400), balance["quantity"])
}

func TestBuyPkgPriceGuard(t *testing.T) {
	gw := newTestGateway(t)
	establishFeeAgreement(t, gw)

	w := doJSON(gw.dev, "POST", "/v1/pkgs", registerPkgRequestBody(2.0))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(gw.buyer, "GET", "/v1/marketplace/pkgs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	offers := response["data"].([]interface{})
	require.Len(t, offers, 1)
	linearID := offers[0].(map[string]interface{})["linear_id"].(string)

	w = doJSON(gw.buyer, "POST", "/v1/cash/self-issue", map[string]interface{}{
		"quantity": 500,
		"currency": "EUR",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(gw.buyer, "POST", fmt.Sprintf("/v1/marketplace/pkgs/%s/buy", linearID), map[string]interface{}{
		"expected_price": models.Amount{Quantity: 100, Currency: "EUR"},
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestSelfIssueBlockedInProduction(t *testing.T) {
	gw := newTestGateway(t)

	prodCfg := testConfig(gwDevName)
	prodCfg.Environment = "production"
	r := newTestRouter(gw.devN, prodCfg)

	w := doJSON(r, "POST", "/v1/cash/self-issue", map[string]interface{}{
		"quantity": 500,
		"currency": "EUR",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
