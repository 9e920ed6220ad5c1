package http

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	bCtx "github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/domain/catalog"
	mmiddleware "github.com/reimerr12/nft-marketplace/middleware"
)

type fakeUsecase struct {
	balance *big.Int
	err     error
}

func (f *fakeUsecase) Synchronize(c bCtx.Ctx, scope catalog.Scope, refresh bool) (*catalog.Catalog, error) {
	return catalog.NewCatalog(scope, nil, "test"), nil
}

func (f *fakeUsecase) Query(c bCtx.Ctx, scope catalog.Scope, state *catalog.QueryState) (*catalog.Page, error) {
	return &catalog.Page{Entries: []*catalog.CatalogEntry{}}, nil
}

func (f *fakeUsecase) Subscribe(onChange func()) func() {
	return func() {}
}

func (f *fakeUsecase) GetWithdrawableBalance(c bCtx.Ctx, account domain.Address) (*big.Int, error) {
	return f.balance, f.err
}

func newTestServer(uc catalog.Usecase) *echo.Echo {
	e := echo.New()
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.AddContext())
	New(e, uc)
	return e
}

func TestBalanceRejectsMalformedAddress(t *testing.T) {
	e := newTestServer(&fakeUsecase{})

	for _, address := range []string{"not-an-address", "0x123", "0xzz00000000000000000000000000000000000000"} {
		req := httptest.NewRequest(http.MethodGet, "/account/"+address+"/balance", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "address %s", address)
	}
}

func TestBalanceReturnsDisplayValue(t *testing.T) {
	e := newTestServer(&fakeUsecase{balance: big.NewInt(1500000000000000000)})

	req := httptest.NewRequest(http.MethodGet, "/account/0x00000000000000000000000000000000000000aa/balance", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"balance":"1500000000000000000"`)
	require.Contains(t, rec.Body.String(), `"displayBalance":"1.5"`)
}
