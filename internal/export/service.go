package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/expiry"
)

const sheet = "Pantry"

// PantryLister returns a user's pantry sorted by expiry.
type PantryLister interface {
	List(ctx context.Context, userID int64) ([]entity.PantryItem, error)
}

// Service produces XLSX bytes for pantry exports.
type Service struct {
	pantry PantryLister
	now    func() time.Time
	logger *slog.Logger
}

func NewService(pantry PantryLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pantry: pantry, now: time.Now, logger: logger}
}

// ExportPantryXLSX returns a workbook with one row per pantry item and a
// "Days Left" column relative to today (negative once expired).
func (s *Service) ExportPantryXLSX(ctx context.Context, userID int64) ([]byte, error) {
	start := time.Now()

	items, err := s.pantry.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query pantry: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Item",
		"Category",
		"Quantity",
		"Unit",
		"Purchase Date",
		"Expiry Date",
		"Days Left",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	today := expiry.DateOnly(s.now())
	for i, it := range items {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		daysLeft := int(expiry.DateOnly(it.ExpiryDate).Sub(today).Hours() / 24)

		write(1, it.ItemName)
		write(2, string(it.Category))
		write(3, it.Quantity)
		write(4, string(it.Unit))
		write(5, it.PurchaseDate.UTC().Format(time.DateOnly))
		write(6, it.ExpiryDate.UTC().Format(time.DateOnly))
		write(7, daysLeft)
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // item
	_ = f.SetColWidth(sheet, "B", "B", 14) // category
	_ = f.SetColWidth(sheet, "C", "D", 10)
	_ = f.SetColWidth(sheet, "E", "F", 14) // dates

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
