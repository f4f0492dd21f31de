package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"backend/internal/domain"
	"backend/internal/export"
	"backend/internal/importer"
	"backend/internal/repository"
	"backend/internal/service"
)

const maxUploadBytes = 32 << 20

type Handler struct {
	svc      *service.Service
	validate *validator.Validate
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.svc.ListItems(r.Context(), repository.ItemListFilter{
		Search:   query.Get("search"),
		Status:   query.Get("status"),
		Category: query.Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "item code is required")
		return
	}
	item, err := h.svc.GetItem(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type createItemRequest struct {
	ItemCode     string   `json:"item_code"`
	ItemName     string   `json:"item_name" validate:"required"`
	CategoryName string   `json:"category_name" validate:"required"`
	UOM          string   `json:"uom" validate:"required"`
	Qualifier    *string  `json:"qualifier"`
	SizeMM       *float64 `json:"size_mm" validate:"omitempty,gt=0"`
	GSM          *float64 `json:"gsm" validate:"omitempty,gt=0"`
	Status       string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.svc.CreateItem(r.Context(), service.ItemCreateInput{
		ItemCode:     req.ItemCode,
		ItemName:     req.ItemName,
		CategoryName: req.CategoryName,
		UOM:          req.UOM,
		Qualifier:    req.Qualifier,
		SizeMM:       req.SizeMM,
		GSM:          req.GSM,
		Status:       req.Status,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type patchItemRequest struct {
	ItemName  *string  `json:"item_name"`
	UOM       *string  `json:"uom"`
	Qualifier *string  `json:"qualifier"`
	SizeMM    *float64 `json:"size_mm"`
	GSM       *float64 `json:"gsm"`
	Status    *string  `json:"status"`
}

func (h *Handler) PatchItem(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	var req patchItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	item, err := h.svc.PatchItem(r.Context(), code, repository.ItemPatchInput{
		ItemName:  req.ItemName,
		UOM:       req.UOM,
		Qualifier: req.Qualifier,
		SizeMM:    req.SizeMM,
		GSM:       req.GSM,
		Status:    req.Status,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": categories, "count": len(categories)})
}

type createCategoryRequest struct {
	CategoryName string `json:"category_name" validate:"required"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.svc.CreateCategory(r.Context(), req.CategoryName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

type createReceiptRequest struct {
	GRNNumber   string   `json:"grn_number" validate:"required"`
	ItemCode    string   `json:"item_code" validate:"required"`
	QtyReceived float64  `json:"qty_received" validate:"required,gt=0"`
	Vendor      *string  `json:"vendor"`
	InvoiceNo   *string  `json:"invoice_no"`
	Amount      *float64 `json:"amount" validate:"omitempty,gte=0"`
	Remarks     *string  `json:"remarks"`
}

func (h *Handler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req createReceiptRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := h.svc.CreateReceipt(r.Context(), repository.ReceiptCreateInput{
		GRNNumber:   req.GRNNumber,
		ItemCode:    req.ItemCode,
		QtyReceived: req.QtyReceived,
		Vendor:      req.Vendor,
		InvoiceNo:   req.InvoiceNo,
		Amount:      req.Amount,
		Remarks:     req.Remarks,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item has no stock record")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

type createIssueRequest struct {
	ItemCode  string  `json:"item_code" validate:"required"`
	QtyIssued float64 `json:"qty_issued" validate:"required,gt=0"`
	Purpose   string  `json:"purpose" validate:"required"`
	Remarks   *string `json:"remarks"`
}

func (h *Handler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	var req createIssueRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := h.svc.CreateIssue(r.Context(), repository.IssueCreateInput{
		ItemCode:  req.ItemCode,
		QtyIssued: req.QtyIssued,
		Purpose:   req.Purpose,
		Remarks:   req.Remarks,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item has no stock record")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	filter, err := logFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.svc.ListReceipts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list, "count": len(list)})
}

func (h *Handler) ListIssues(w http.ResponseWriter, r *http.Request) {
	filter, err := logFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.svc.ListIssues(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list, "count": len(list)})
}

func (h *Handler) StockSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.StockSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rows, "count": len(rows)})
}

func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.DashboardSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	kind := importer.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, "unknown import kind")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_template.csv", kind))
	_, _ = io.WriteString(w, export.TemplateCSV(kind))
}

func (h *Handler) PreviewImport(w http.ResponseWriter, r *http.Request) {
	kind := importer.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, "unknown import kind")
		return
	}
	raw, _, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	preview, err := h.svc.PreviewImport(r.Context(), kind, raw)
	if err != nil {
		writeImportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":              preview.Kind,
		"total_rows":        preview.TotalRows,
		"ready":             preview.Ready(),
		"validation_errors": preview.ValidationErrors,
		"conflicts":         preview.Conflicts,
	})
}

func (h *Handler) ApplyImport(w http.ResponseWriter, r *http.Request) {
	kind := importer.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, "unknown import kind")
		return
	}
	raw, fileName, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	decisions, err := parseDecisions(r.FormValue("decisions"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta := importer.UploadMeta{FileName: fileName}
	if userID := strings.TrimSpace(r.FormValue("user_id")); userID != "" {
		meta.UserID = &userID
	}

	result, err := h.svc.ApplyImport(r.Context(), kind, raw, decisions, meta)
	if err != nil {
		writeImportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	uploads, err := h.svc.ListUploads(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": uploads, "count": len(uploads)})
}

func (h *Handler) ExportItemsCSV(w http.ResponseWriter, r *http.Request) {
	csv, err := h.svc.ExportItemsCSV(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=item_master.csv")
	_, _ = io.WriteString(w, csv)
}

func (h *Handler) ExportItemsXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportItemsXLSX(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeXLSX(w, "item_master.xlsx", data)
}

func (h *Handler) ExportStockSummaryXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportStockSummaryXLSX(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeXLSX(w, "stock_summary.xlsx", data)
}

func (h *Handler) decodeAndValidate(r *http.Request, out any) error {
	if err := decodeJSON(r, out); err != nil {
		return err
	}
	if err := h.validate.Struct(out); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			field := invalid[0]
			return fmt.Errorf("field %s failed %s validation", field.Field(), field.Tag())
		}
		return err
	}
	return nil
}

func readUpload(r *http.Request) (string, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", "", fmt.Errorf("failed to parse multipart form")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", fmt.Errorf("file field is required")
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	return string(raw), header.Filename, nil
}

func parseDecisions(raw string) (importer.Decisions, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	byRow := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &byRow); err != nil {
		return nil, fmt.Errorf("decisions must be a JSON object of row -> action")
	}
	decisions := make(importer.Decisions, len(byRow))
	for rowRaw, actionRaw := range byRow {
		row, err := strconv.Atoi(rowRaw)
		if err != nil || row < 2 {
			return nil, fmt.Errorf("invalid decision row: %s", rowRaw)
		}
		switch action := importer.Action(strings.ToLower(actionRaw)); action {
		case importer.ActionSkip, importer.ActionUpdate, importer.ActionError:
			decisions[row] = action
		default:
			return nil, fmt.Errorf("invalid decision action %q for row %s", actionRaw, rowRaw)
		}
	}
	return decisions, nil
}

func writeImportError(w http.ResponseWriter, err error) {
	var parseErr *importer.ParseError
	var missingErr *importer.MissingColumnsError
	var blockedErr *importer.ValidationBlockedError
	switch {
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadRequest, parseErr.Error())
	case errors.As(err, &missingErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":           missingErr.Error(),
			"missing_columns": missingErr.Columns,
		})
	case errors.As(err, &blockedErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":             "validation failed; fix the file and re-upload",
			"validation_errors": blockedErr.Rows,
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func parseOptionalInt(raw string, defaultValue int) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %s", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("value cannot be negative")
	}
	return parsed, nil
}

func parseOptionalTime(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			if layout == "2006-01-02" {
				utc := parsed.UTC()
				return &utc, nil
			}
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid time")
}

func logFilterFromQuery(r *http.Request) (repository.LogListFilter, error) {
	query := r.URL.Query()
	limit, err := parseOptionalInt(query.Get("limit"), 200)
	if err != nil {
		return repository.LogListFilter{}, err
	}
	offset, err := parseOptionalInt(query.Get("offset"), 0)
	if err != nil {
		return repository.LogListFilter{}, err
	}
	from, err := parseOptionalTime(query.Get("from"))
	if err != nil {
		return repository.LogListFilter{}, fmt.Errorf("invalid from date")
	}
	to, err := parseOptionalTime(query.Get("to"))
	if err != nil {
		return repository.LogListFilter{}, fmt.Errorf("invalid to date")
	}
	return repository.LogListFilter{
		ItemCode: query.Get("item_code"),
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func writeXLSX(w http.ResponseWriter, fileName string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
