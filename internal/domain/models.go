package domain

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Category struct {
	ID           int64     `json:"id"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type Item struct {
	ID           int64     `json:"id"`
	ItemCode     string    `json:"item_code"`
	ItemName     string    `json:"item_name"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name"`
	UOM          string    `json:"uom"`
	Qualifier    *string   `json:"qualifier,omitempty"`
	SizeMM       *float64  `json:"size_mm,omitempty"`
	GSM          *float64  `json:"gsm,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type StockRecord struct {
	ItemCode   string    `json:"item_code"`
	OpeningQty float64   `json:"opening_qty"`
	CurrentQty float64   `json:"current_qty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ReceiptRecord struct {
	ID          int64     `json:"id"`
	GRNNumber   string    `json:"grn_number"`
	ItemCode    string    `json:"item_code"`
	QtyReceived float64   `json:"qty_received"`
	Vendor      *string   `json:"vendor,omitempty"`
	InvoiceNo   *string   `json:"invoice_no,omitempty"`
	Amount      *float64  `json:"amount,omitempty"`
	Remarks     *string   `json:"remarks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type IssueRecord struct {
	ID        int64     `json:"id"`
	ItemCode  string    `json:"item_code"`
	QtyIssued float64   `json:"qty_issued"`
	Purpose   string    `json:"purpose"`
	Remarks   *string   `json:"remarks,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StockSummaryRow is derived on every read, never persisted.
type StockSummaryRow struct {
	ItemCode          string  `json:"item_code"`
	ItemName          string  `json:"item_name"`
	CategoryName      string  `json:"category_name"`
	UOM               string  `json:"uom"`
	Status            string  `json:"status"`
	OpeningQty        float64 `json:"opening_qty"`
	CurrentQty        float64 `json:"current_qty"`
	TotalReceived     float64 `json:"total_received"`
	TotalIssued       float64 `json:"total_issued"`
	CalculatedQty     float64 `json:"calculated_qty"`
	ValidationStatus  string  `json:"validation_status"`
	Issue7d           float64 `json:"issue_7d"`
	Issue30d          float64 `json:"issue_30d"`
	Issue90d          float64 `json:"issue_90d"`
	ConsumptionRate7  float64 `json:"consumption_rate_7d"`
	ConsumptionRate30 float64 `json:"consumption_rate_30d"`
	ConsumptionRate90 float64 `json:"consumption_rate_90d"`
	DaysOfCover7      float64 `json:"days_of_cover_7d"`
	DaysOfCover30     float64 `json:"days_of_cover_30d"`
	DaysOfCover90     float64 `json:"days_of_cover_90d"`
	DaysOfCover       float64 `json:"days_of_cover"`
}

// RowError identifies one failed CSV row. Row numbers are 1-based file line
// numbers, so the first data row after the header reports as row 2.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Success int        `json:"success"`
	Errors  []RowError `json:"errors"`
	Total   int        `json:"total"`
}

type UploadLog struct {
	ID          string     `json:"id"`
	UserID      *string    `json:"user_id,omitempty"`
	FileName    string     `json:"file_name"`
	FileType    string     `json:"file_type"`
	TotalRows   int        `json:"total_rows"`
	SuccessRows int        `json:"success_rows"`
	ErrorRows   int        `json:"error_rows"`
	Errors      []RowError `json:"errors,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type DashboardSummary struct {
	TotalItems      int     `json:"total_items"`
	ActiveItems     int     `json:"active_items"`
	TotalCategories int     `json:"total_categories"`
	TotalStockQty   float64 `json:"total_stock_qty"`
	ReceiptsToday   int     `json:"receipts_today"`
	IssuesToday     int     `json:"issues_today"`
}
