package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/domain"
)

func TestPreviewRejectsUnknownKind(t *testing.T) {
	rec := New(newMemStore(), nil)
	_, err := rec.Preview(context.Background(), Kind("grn"), "item_code\nRAW-01")
	require.Error(t, err)
}

func TestPreviewMissingColumns(t *testing.T) {
	rec := New(newMemStore(), nil)
	_, err := rec.Preview(context.Background(), KindItemMaster, "item_code,uom\nRAW-01,kg")

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"item_name", "category_name"}, missing.Columns)
}

func TestPreviewDuplicateHeaderColumn(t *testing.T) {
	rec := New(newMemStore(), nil)
	_, err := rec.Preview(context.Background(), KindItemMaster,
		"item_name,category_name,uom,Item Name\nKraft,Raw Materials,kg,Kraft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestPreviewHeaderMatchingIsForgiving(t *testing.T) {
	store := newMemStore()
	store.seedCategory("Raw Materials")
	rec := New(store, nil)

	preview, err := rec.Preview(context.Background(), KindItemMaster,
		"\uFEFFItem Code,ITEM NAME,Category Name,UOM\nRAW-01,Kraft Paper,Raw Materials,kg")
	require.NoError(t, err)
	assert.True(t, preview.Ready())
	assert.Equal(t, 1, preview.TotalRows)
}

func TestPreviewCollectsEveryViolation(t *testing.T) {
	store := newMemStore()
	store.seedCategory("Raw Materials")
	rec := New(store, nil)

	csv := strings.Join([]string{
		"item_name,category_name,uom,size_mm,gsm,status",
		"Kraft Paper,Raw Materials,kg,210,80,active", // clean
		",Packaging,,abc,,paused",                    // five problems in one row
		"Duplex Board,Raw Materials,kg,,xx,",         // one problem
	}, "\n")

	preview, err := rec.Preview(context.Background(), KindItemMaster, csv)
	require.NoError(t, err)
	assert.False(t, preview.Ready())

	messagesByRow := map[int][]string{}
	for _, rowErr := range preview.ValidationErrors {
		messagesByRow[rowErr.Row] = append(messagesByRow[rowErr.Row], rowErr.Message)
	}

	require.Len(t, messagesByRow[3], 5)
	assert.Contains(t, messagesByRow[3], "item_name is required")
	assert.Contains(t, messagesByRow[3], `category "Packaging" does not exist`)
	assert.Contains(t, messagesByRow[3], "uom is required")
	assert.Contains(t, messagesByRow[3], "size_mm must be a number")
	assert.Contains(t, messagesByRow[3], "status must be active or inactive")

	require.Len(t, messagesByRow[4], 1)
	assert.Equal(t, "gsm must be a number", messagesByRow[4][0])

	assert.Empty(t, messagesByRow[2])
}

func TestPreviewOpeningStockValidation(t *testing.T) {
	rec := New(newMemStore(), nil)

	csv := strings.Join([]string{
		"item_code,opening_qty",
		"RAW-01,100",
		",50",
		"RAW-02,-3",
		"RAW-03,lots",
	}, "\n")

	preview, err := rec.Preview(context.Background(), KindOpeningStock, csv)
	require.NoError(t, err)
	assert.False(t, preview.Ready())

	require.Len(t, preview.ValidationErrors, 3)
	assert.Equal(t, domain.RowError{Row: 3, Message: "item_code is required"}, preview.ValidationErrors[0])
	assert.Equal(t, domain.RowError{Row: 4, Message: "opening_qty cannot be negative"}, preview.ValidationErrors[1])
	assert.Equal(t, domain.RowError{Row: 5, Message: "opening_qty must be a number"}, preview.ValidationErrors[2])
}

func TestPreviewConflictsDefaultToSkip(t *testing.T) {
	store := newMemStore()
	store.seedItem("RAW-01", "Kraft Paper", "Raw Materials")
	rec := New(store, nil)

	csv := strings.Join([]string{
		"item_code,item_name,category_name,uom",
		"RAW-01,Kraft Paper,Raw Materials,kg",
		"RAW-02,Duplex Board,Raw Materials,kg",
	}, "\n")

	preview, err := rec.Preview(context.Background(), KindItemMaster, csv)
	require.NoError(t, err)
	assert.True(t, preview.Ready())

	require.Len(t, preview.Conflicts, 1)
	assert.Equal(t, Conflict{Row: 2, ItemCode: "RAW-01", ItemName: "Kraft Paper", Action: ActionSkip}, preview.Conflicts[0])
}

func TestPreviewConflictMatchesDerivedCode(t *testing.T) {
	store := newMemStore()
	store.seedItem("RAW-CO-210-80G", "Coated Kraft", "Raw Materials")
	rec := New(store, nil)

	// No item_code column; the derived code collides with the seeded item.
	csv := strings.Join([]string{
		"item_name,category_name,uom,qualifier,size_mm,gsm",
		"Coated Kraft,Raw Materials,kg,Coated,210,80",
	}, "\n")

	preview, err := rec.Preview(context.Background(), KindItemMaster, csv)
	require.NoError(t, err)
	require.Len(t, preview.Conflicts, 1)
	assert.Equal(t, "RAW-CO-210-80G", preview.Conflicts[0].ItemCode)
}

func TestApplyBlockedByValidation(t *testing.T) {
	store := newMemStore()
	rec := New(store, nil)

	_, err := rec.Apply(context.Background(), KindOpeningStock,
		"item_code,opening_qty\nRAW-01,abc", nil, UploadMeta{FileName: "opening.csv"}, nil)

	var blocked *ValidationBlockedError
	require.ErrorAs(t, err, &blocked)
	require.Len(t, blocked.Rows, 1)
	assert.Empty(t, store.createdItems, "nothing may be written when validation fails")
	assert.Empty(t, store.uploads)
}

func TestApplyInsertsNewItemsAndInitialisesStock(t *testing.T) {
	store := newMemStore()
	store.seedCategory("Raw Materials")
	rec := New(store, nil)

	csv := strings.Join([]string{
		"item_code,item_name,category_name,uom,status",
		"RAW-01,Kraft Paper,Raw Materials,kg,",
		"RAW-02,Duplex Board,Raw Materials,kg,inactive",
	}, "\n")

	result, err := rec.Apply(context.Background(), KindItemMaster, csv, nil, UploadMeta{FileName: "items.csv"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 2, result.Total)
	assert.Empty(t, result.Errors)

	first, err := store.ItemByCode(context.Background(), "RAW-01")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, first.Status, "blank status defaults to active")

	second, err := store.ItemByCode(context.Background(), "RAW-02")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInactive, second.Status)

	require.Contains(t, store.stock, "RAW-01")
	assert.Zero(t, store.stock["RAW-01"].CurrentQty)
}

func TestApplyConflictResolutions(t *testing.T) {
	store := newMemStore()
	store.seedItem("RAW-01", "Old Name", "Raw Materials")
	store.seedItem("RAW-02", "Old Board", "Raw Materials")
	store.seedItem("RAW-03", "Old Liner", "Raw Materials")
	rec := New(store, nil)

	csv := strings.Join([]string{
		"item_code,item_name,category_name,uom",
		"RAW-01,New Name,Raw Materials,kg",    // line 2: update
		"RAW-02,New Board,Raw Materials,kg",   // line 3: defaulted skip
		"RAW-03,New Liner,Raw Materials,kg",   // line 4: error
		"RAW-04,Fresh Sheet,Raw Materials,kg", // line 5: plain insert
	}, "\n")

	decisions := Decisions{2: ActionUpdate, 4: ActionError}
	result, err := rec.Apply(context.Background(), KindItemMaster, csv, decisions, UploadMeta{FileName: "items.csv"}, nil)
	require.NoError(t, err)

	// Skip row is omitted entirely: not counted, not an error.
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, `"RAW-03" already exists`)

	updated, err := store.ItemByCode(context.Background(), "RAW-01")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.ItemName)

	skipped, err := store.ItemByCode(context.Background(), "RAW-02")
	require.NoError(t, err)
	assert.Equal(t, "Old Board", skipped.ItemName)

	untouched, err := store.ItemByCode(context.Background(), "RAW-03")
	require.NoError(t, err)
	assert.Equal(t, "Old Liner", untouched.ItemName, "an error resolution must not write")

	assert.Equal(t, []string{"RAW-04"}, store.createdItems)
}

func TestApplyDecisionsOnlyAffectConflictingRows(t *testing.T) {
	store := newMemStore()
	store.seedCategory("Raw Materials")
	rec := New(store, nil)

	csv := "item_code,item_name,category_name,uom\nRAW-01,Kraft Paper,Raw Materials,kg"

	// RAW-01 does not exist, so a skip decision for its row is ignored.
	result, err := rec.Apply(context.Background(), KindItemMaster, csv,
		Decisions{2: ActionSkip}, UploadMeta{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, []string{"RAW-01"}, store.createdItems)
}

func TestApplySkipOnlyImportWritesNothing(t *testing.T) {
	store := newMemStore()
	store.seedItem("RAW-01", "Kraft Paper", "Raw Materials")
	rec := New(store, nil)

	csv := "item_code,item_name,category_name,uom\nRAW-01,Renamed,Raw Materials,kg"

	// Re-importing an unchanged export conflicts on every row and defaults
	// to skip, so applying twice is harmless.
	for i := 0; i < 2; i++ {
		result, err := rec.Apply(context.Background(), KindItemMaster, csv, nil, UploadMeta{}, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Success)
		assert.Equal(t, 0, result.Total)
		assert.Empty(t, result.Errors)
	}

	item, err := store.ItemByCode(context.Background(), "RAW-01")
	require.NoError(t, err)
	assert.Equal(t, "Kraft Paper", item.ItemName)
}

func TestApplyRowFailureDoesNotStopSiblings(t *testing.T) {
	store := newMemStore()
	store.seedCategory("Raw Materials")
	store.failCodes["RAW-09"] = "constraint violated"
	rec := New(store, nil)

	var b strings.Builder
	b.WriteString("item_code,item_name,category_name,uom\n")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "RAW-%02d,Sheet %d,Raw Materials,kg\n", i, i)
	}

	result, err := rec.Apply(context.Background(), KindItemMaster, b.String(), nil, UploadMeta{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 12, result.Total)
	assert.Equal(t, 11, result.Success)
	require.Len(t, result.Errors, 1)
	// RAW-09 is the 9th data row, file line 10.
	assert.Equal(t, 10, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "constraint violated")

	// Rows after the failure, including the second batch, still applied.
	assert.Contains(t, store.createdItems, "RAW-10")
	assert.Contains(t, store.createdItems, "RAW-12")
}

func TestApplyReportsProgressPerBatch(t *testing.T) {
	store := newMemStore()
	store.seedCategory("Raw Materials")
	rec := New(store, nil)

	var b strings.Builder
	b.WriteString("item_code,item_name,category_name,uom\n")
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&b, "RAW-%02d,Sheet %d,Raw Materials,kg\n", i, i)
	}

	var checkpoints [][2]int
	_, err := rec.Apply(context.Background(), KindItemMaster, b.String(), nil, UploadMeta{}, func(done, total int) {
		checkpoints = append(checkpoints, [2]int{done, total})
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{10, 25}, {20, 25}, {25, 25}}, checkpoints)
}

func TestApplyRecordsUploadAudit(t *testing.T) {
	store := newMemStore()
	store.seedCategory("Raw Materials")
	store.failCodes["RAW-02"] = "constraint violated"
	rec := New(store, nil)

	user := "u-17"
	csv := strings.Join([]string{
		"item_code,item_name,category_name,uom",
		"RAW-01,Kraft Paper,Raw Materials,kg",
		"RAW-02,Duplex Board,Raw Materials,kg",
	}, "\n")

	_, err := rec.Apply(context.Background(), KindItemMaster, csv, nil,
		UploadMeta{FileName: "items.csv", UserID: &user}, nil)
	require.NoError(t, err)

	require.Len(t, store.uploads, 1)
	upload := store.uploads[0]
	assert.NotEmpty(t, upload.ID)
	assert.Equal(t, "items.csv", upload.FileName)
	assert.Equal(t, string(KindItemMaster), upload.FileType)
	assert.Equal(t, &user, upload.UserID)
	assert.Equal(t, 2, upload.TotalRows)
	assert.Equal(t, 1, upload.SuccessRows)
	assert.Equal(t, 1, upload.ErrorRows)
	require.Len(t, upload.Errors, 1)
}

func TestApplyAuditFailureDoesNotChangeResult(t *testing.T) {
	store := newMemStore()
	store.seedCategory("Raw Materials")
	store.uploadsFail = true
	rec := New(store, nil)

	csv := "item_code,item_name,category_name,uom\nRAW-01,Kraft Paper,Raw Materials,kg"
	result, err := rec.Apply(context.Background(), KindItemMaster, csv, nil, UploadMeta{FileName: "items.csv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
}

func TestApplyOpeningStockCreatesMissingItemAndCategory(t *testing.T) {
	store := newMemStore()
	rec := New(store, nil)

	csv := strings.Join([]string{
		"item_code,opening_qty,item_name,category_name,uom",
		"RAW-01,150.5,Kraft Paper,Raw Materials,kg",
	}, "\n")

	result, err := rec.Apply(context.Background(), KindOpeningStock, csv, nil, UploadMeta{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)

	// The category did not exist; the opening-stock flow creates it.
	_, err = store.CategoryByName(context.Background(), "Raw Materials")
	require.NoError(t, err)

	item, err := store.ItemByCode(context.Background(), "RAW-01")
	require.NoError(t, err)
	assert.Equal(t, "Kraft Paper", item.ItemName)

	require.Contains(t, store.stock, "RAW-01")
	assert.Equal(t, 150.5, store.stock["RAW-01"].OpeningQty)
	assert.Equal(t, 150.5, store.stock["RAW-01"].CurrentQty)
}

func TestApplyOpeningStockMissingItemNeedsDescriptiveColumns(t *testing.T) {
	store := newMemStore()
	rec := New(store, nil)

	result, err := rec.Apply(context.Background(), KindOpeningStock,
		"item_code,opening_qty\nRAW-01,100", nil, UploadMeta{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "does not exist")
}

func TestApplyOpeningStockUpdateOverwritesBalance(t *testing.T) {
	store := newMemStore()
	store.seedItem("RAW-01", "Kraft Paper", "Raw Materials")
	require.NoError(t, store.SetOpeningStock(context.Background(), "RAW-01", 40))
	rec := New(store, nil)

	result, err := rec.Apply(context.Background(), KindOpeningStock,
		"item_code,opening_qty\nRAW-01,75", Decisions{2: ActionUpdate}, UploadMeta{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)

	assert.Equal(t, 75.0, store.stock["RAW-01"].OpeningQty)
	assert.Equal(t, 75.0, store.stock["RAW-01"].CurrentQty)
}

func TestApplyNumbersWithThousandsSeparators(t *testing.T) {
	store := newMemStore()
	store.seedItem("RAW-01", "Kraft Paper", "Raw Materials")
	rec := New(store, nil)

	result, err := rec.Apply(context.Background(), KindOpeningStock,
		`item_code,opening_qty`+"\n"+`RAW-01,"1,250.75"`, Decisions{2: ActionUpdate}, UploadMeta{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1250.75, store.stock["RAW-01"].OpeningQty)
}
