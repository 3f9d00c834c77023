package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	catalogapp "github.com/storefront/commerce/internal/catalog/app"
	catalogdomain "github.com/storefront/commerce/internal/catalog/domain"
)

type CatalogHandlers struct {
	svc    *catalogapp.Service
	server *Server
}

func NewCatalogHandlers(svc *catalogapp.Service) *CatalogHandlers {
	return &CatalogHandlers{svc: svc}
}

func (h *CatalogHandlers) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	products, err := h.svc.ListProducts(r.Context(), q.Get("query"), limit)
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}

	dtos := make([]productDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	h.server.writeJSON(w, http.StatusOK, dtos)
}

func (h *CatalogHandlers) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusOK, toProductDTO(p))
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int32  `json:"stock"`
}

func (h *CatalogHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.server.writeError(w, r, errMalformedBody)
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		h.server.writeError(w, r, catalogapp.ErrInvalidInput)
		return
	}

	p, err := h.svc.CreateProduct(r.Context(), catalogdomain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
	})
	if err != nil {
		h.server.writeError(w, r, err)
		return
	}
	h.server.writeJSON(w, http.StatusCreated, toProductDTO(p))
}
