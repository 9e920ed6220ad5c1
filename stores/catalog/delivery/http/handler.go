package http

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/reimerr12/nft-marketplace/base/ctx"
	"github.com/reimerr12/nft-marketplace/base/delivery"
	"github.com/reimerr12/nft-marketplace/domain"
	"github.com/reimerr12/nft-marketplace/domain/catalog"
	mmiddleware "github.com/reimerr12/nft-marketplace/middleware"
)

const weiExponent = -18

type handler struct {
	catalog catalog.Usecase
}

func New(e *echo.Echo, uc catalog.Usecase) {
	h := &handler{catalog: uc}

	g := e.Group("/catalog")

	g.GET("", h.query)

	g.GET("/query", h.query)

	g.POST("/refresh", h.refresh)

	e.GET("/account/:address/balance", h.balance, mmiddleware.IsValidAddress("address"))
}

type entryView struct {
	*catalog.CatalogEntry
	DisplayName string         `json:"displayName"`
	Status      catalog.Status `json:"status"`
	// DisplayPrice is the active value converted from wei to whole coins
	DisplayPrice string `json:"displayPrice"`
}

type pageView struct {
	Entries    []entryView `json:"entries"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
	Stale      bool        `json:"stale"`
}

func toPageView(page *catalog.Page) pageView {
	entries := make([]entryView, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, entryView{
			CatalogEntry: e,
			DisplayName:  e.DisplayName(),
			Status:       e.Status(),
			DisplayPrice: decimal.NewFromBigInt(e.ActiveValue(), weiExponent).String(),
		})
	}
	return pageView{
		Entries:    entries,
		Total:      page.Total,
		Page:       page.PageNum,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		Stale:      page.Stale,
	}
}

func (h *handler) query(c echo.Context) error {
	type params struct {
		Kind     string         `query:"kind"`
		Account  domain.Address `query:"account"`
		Search   string         `query:"search"`
		Status   string         `query:"status"`
		MinPrice string         `query:"minPrice"`
		MaxPrice string         `query:"maxPrice"`
		Sort     string         `query:"sort"`
		PageSize int            `query:"pageSize"`
		Page     int            `query:"page"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	scope, err := parseScope(p.Kind, p.Account)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	minPrice, err := parsePrice(p.MinPrice)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	maxPrice, err := parsePrice(p.MaxPrice)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	state := catalog.NewQueryState()
	state.SetSearch(p.Search)
	if len(p.Status) > 0 {
		state.SetStatus(catalog.Status(p.Status))
	}
	state.SetPriceRange(minPrice, maxPrice)
	if len(p.Sort) > 0 {
		state.SetSort(catalog.SortKey(p.Sort))
	}
	if p.PageSize > 0 {
		state.SetPageSize(p.PageSize)
	}
	if p.Page > 0 {
		state.SetPage(p.Page)
	}

	ctx := c.Get("ctx").(ctx.Ctx)

	if res, err := h.catalog.Query(ctx, scope, state); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	} else {
		return delivery.MakeJsonResp(c, http.StatusOK, toPageView(res))
	}
}

func (h *handler) refresh(c echo.Context) error {
	type params struct {
		Kind    string         `query:"kind"`
		Account domain.Address `query:"account"`
	}

	type refreshView struct {
		SyncId  string `json:"syncId"`
		Entries int    `json:"entries"`
		Stale   bool   `json:"stale"`
	}

	p := &params{}

	if err := c.Bind(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, "invalid params")
	}

	scope, err := parseScope(p.Kind, p.Account)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.catalog.Synchronize(ctx, scope, true)
	if err != nil && !errors.Is(err, domain.ErrRefreshFailed) {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, refreshView{
		SyncId:  res.SyncId,
		Entries: res.Len(),
		Stale:   errors.Is(err, domain.ErrRefreshFailed),
	})
}

func (h *handler) balance(c echo.Context) error {
	type balanceView struct {
		Account        domain.Address `json:"account"`
		Balance        string         `json:"balance"`
		DisplayBalance string         `json:"displayBalance"`
	}

	address := c.Param("address")

	ctx := c.Get("ctx").(ctx.Ctx)

	balance, err := h.catalog.GetWithdrawableBalance(ctx, domain.Address(address))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, balanceView{
		Account:        domain.Address(address).ToLower(),
		Balance:        balance.String(),
		DisplayBalance: decimal.NewFromBigInt(balance, weiExponent).String(),
	})
}

func parseScope(kind string, account domain.Address) (catalog.Scope, error) {
	switch catalog.ScopeKind(kind) {
	case catalog.ScopeKindActive, catalog.ScopeKind(""):
		return catalog.ActiveScope(), nil
	case catalog.ScopeKindCreatedBy:
		if account.IsEmpty() {
			return catalog.Scope{}, domain.ErrBadParamInput
		}
		return catalog.CreatedByScope(account), nil
	case catalog.ScopeKindPurchasedBy:
		if account.IsEmpty() {
			return catalog.Scope{}, domain.ErrBadParamInput
		}
		return catalog.PurchasedByScope(account), nil
	default:
		return catalog.Scope{}, domain.ErrBadParamInput
	}
}

func parsePrice(raw string) (*big.Int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	price, ok := new(big.Int).SetString(raw, 10)
	if !ok || price.Sign() < 0 {
		return nil, domain.ErrInvalidNumberFormat
	}
	return price, nil
}
