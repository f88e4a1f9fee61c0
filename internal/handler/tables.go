package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/skip2/go-qrcode"
	"github.com/tablemenu/api/internal/database"
)

const qrCodeSize = 256

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	ListDiningTables(ctx context.Context) ([]database.DiningTable, error)
	GetDiningTableByNumber(ctx context.Context, tableNumber int32) (database.DiningTable, error)
}

// TableHandler lists dining tables and renders their scan codes.
type TableHandler struct {
	store   TableStore
	baseURL string
}

// NewTableHandler creates a new TableHandler. baseURL is the public address
// of the diner web app.
func NewTableHandler(store TableStore, baseURL string) *TableHandler {
	return &TableHandler{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

// RegisterRoutes registers table endpoints. Expected to be mounted at /admin/tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{number}/qrcode", h.QRCode)
}

type tableResponse struct {
	ID          uuid.UUID `json:"id"`
	TableNumber int32     `json:"tableNumber"`
	IsActive    bool      `json:"isActive"`
	ScanURL     string    `json:"scanUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListDiningTables(r.Context())
	if err != nil {
		writeInternalError(w, "list tables", err)
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = tableResponse{
			ID:          t.ID,
			TableNumber: t.TableNumber,
			IsActive:    t.IsActive,
			ScanURL:     h.scanURL(t.TableNumber),
			CreatedAt:   t.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// QRCode returns a PNG QR code pointing diners at the table's scan URL.
func (h *TableHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 32)
	if err != nil || number <= 0 {
		writeError(w, http.StatusBadRequest, "table number must be a positive integer", "INVALID_TABLE_NUMBER")
		return
	}

	table, err := h.store.GetDiningTableByNumber(r.Context(), int32(number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "table not found", "TABLE_NOT_FOUND")
			return
		}
		writeInternalError(w, "get table", err)
		return
	}

	png, err := qrcode.Encode(h.scanURL(table.TableNumber), qrcode.Medium, qrCodeSize)
	if err != nil {
		writeInternalError(w, "encode qr code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="table-%d.png"`, table.TableNumber))
	w.WriteHeader(http.StatusOK)
	w.Write(png) //nolint:errcheck
}

func (h *TableHandler) scanURL(number int32) string {
	return h.baseURL + "/table-scan?" + url.Values{"table": {strconv.Itoa(int(number))}}.Encode()
}
