package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/service/spreadsheet"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
	"github.com/mamadbah2/partstock/pkg/format"
)

// InventoryStore is the store surface used by the item endpoints.
type InventoryStore interface {
	Items() []models.InventoryItem
	Search(params models.SearchParams) models.ItemPage
	Get(id string) (models.InventoryItem, error)
	AddItem(candidate models.ItemCandidate) (models.InventoryItem, error)
	UpdateItem(item models.InventoryItem) (models.InventoryItem, error)
	DeleteItem(id string) error
	RecordTransaction(req models.TransactionRequest) (models.TransactionResult, error)
	LowStock() []models.InventoryItem
}

// ItemImporter feeds uploaded files and spreadsheet ranges into the store.
type ItemImporter interface {
	ImportCSV(r io.Reader) (models.ImportResult, error)
	ImportRows(header []string, rows []map[string]string) models.ImportResult
	ImportSheet(ctx context.Context) (models.ImportResult, error)
}

// InventoryHandler serves the item, import, export, label and scan endpoints.
type InventoryHandler struct {
	store          InventoryStore
	importer       ItemImporter
	maxUploadBytes int64
	logger         *zap.Logger
	now            func() time.Time
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(store InventoryStore, importer ItemImporter, maxUploadBytes int64, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &InventoryHandler{
		store:          store,
		importer:       importer,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		now:            time.Now,
	}
}

// importRowsRequest carries JSON rows. Header is optional and gives the
// column order the rows were read in.
type importRowsRequest struct {
	Header []string            `json:"header"`
	Rows   []map[string]string `json:"rows"`
}

type labelResponse struct {
	Payload models.LabelPayload `json:"payload"`
	Code    string              `json:"code"`
}

// List searches items with ?q=&page=&per_page=.
func (h *InventoryHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		badRequest(c, h.logger, err, "page must be a number")
		return
	}
	perPage, err := queryInt(c, "per_page", 0)
	if err != nil {
		badRequest(c, h.logger, err, "per_page must be a number")
		return
	}

	c.JSON(http.StatusOK, h.store.Search(models.SearchParams{
		Query:   c.Query("q"),
		Page:    page,
		PerPage: perPage,
	}))
}

// Create adds a new item.
func (h *InventoryHandler) Create(c *gin.Context) {
	var candidate models.ItemCandidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		badRequest(c, h.logger, err, "invalid request body")
		return
	}

	item, err := h.store.AddItem(candidate)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Get returns one item.
func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.store.Get(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Update replaces the item named in the path.
func (h *InventoryHandler) Update(c *gin.Context) {
	var item models.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, h.logger, err, "invalid request body")
		return
	}

	id := c.Param("id")
	if item.ID != "" && item.ID != id {
		writeError(c, h.logger, pkgerrors.New(pkgerrors.CodeValidation, "body id does not match path").
			WithDetails(map[string]string{"id": "must match the path id"}))
		return
	}
	item.ID = id

	updated, err := h.store.UpdateItem(item)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes an item.
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteItem(c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LowStock lists items at or below the alert threshold.
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items := h.store.LowStock()
	if items == nil {
		items = []models.InventoryItem{}
	}
	c.JSON(http.StatusOK, items)
}

// Export streams the inventory, or the items in ?ids=a,b, as CSV.
func (h *InventoryHandler) Export(c *gin.Context) {
	var ids []string
	for _, id := range strings.Split(c.Query("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	filename := fmt.Sprintf("inventory-%s.csv", format.ISODate(h.now()))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	if err := spreadsheet.WriteCSV(c.Writer, h.store.Items(), ids...); err != nil {
		// Headers are already sent; all that is left is to log.
		h.logger.Error("csv export failed", zap.Error(err))
	}
}

// Import accepts a multipart CSV upload in the "file" field or a JSON body
// of header-keyed rows.
func (h *InventoryHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.importFile(c)
		return
	}

	var req importRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.rejectBody(c, err)
		return
	}
	if len(req.Rows) == 0 {
		writeError(c, h.logger, pkgerrors.New(pkgerrors.CodeValidation, "no rows to import").
			WithDetails(map[string]string{"rows": "is required"}))
		return
	}

	c.JSON(http.StatusOK, h.importer.ImportRows(req.Header, req.Rows))
}

func (h *InventoryHandler) importFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.rejectBody(c, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, h.logger, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open upload"))
		return
	}
	defer file.Close()

	result, err := h.importer.ImportCSV(file)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("file imported", zap.String("filename", header.Filename), zap.Int64("size", header.Size))
	c.JSON(http.StatusOK, result)
}

func (h *InventoryHandler) rejectBody(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(c, h.logger, pkgerrors.Newf(pkgerrors.CodeValidation, "upload exceeds %d bytes", tooLarge.Limit))
		return
	}
	badRequest(c, h.logger, err, "invalid import request")
}

// ImportSheet pulls the configured spreadsheet range into the store.
func (h *InventoryHandler) ImportSheet(c *gin.Context) {
	result, err := h.importer.ImportSheet(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Label returns the QR payload for an item together with its encoded form.
func (h *InventoryHandler) Label(c *gin.Context) {
	item, err := h.store.Get(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	payload := models.NewLabelPayload(item)
	code, err := payload.Encode()
	if err != nil {
		writeError(c, h.logger, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode label"))
		return
	}
	c.JSON(http.StatusOK, labelResponse{Payload: payload, Code: code})
}

// Scan records a stock movement for a scanned label or typed part number.
func (h *InventoryHandler) Scan(c *gin.Context) {
	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err, "invalid request body")
		return
	}

	result, err := h.store.RecordTransaction(req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
