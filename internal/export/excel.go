package export

import (
	"fmt"
	"io"

	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/internal/app/repository"
	"github.com/xuri/excelize/v2"
)

const businessSheet = "Businesses"

// WriteBusinessReport renders cached businesses plus store-wide counters into
// an xlsx workbook for offline review.
func WriteBusinessReport(w io.Writer, businesses []model.Business, stats *repository.StoreStats) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(businessSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Place ID", "Name", "Phone", "Address", "Category", "Rating",
		"Review Count", "Quality Score", "Update Count", "Last Updated",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(businessSheet, cell, header); err != nil {
			return err
		}
	}

	for row, business := range businesses {
		values := []interface{}{
			business.PlaceID,
			business.Name,
			business.Phone,
			business.Address,
			business.Category,
			business.Rating,
			business.ReviewCount,
			business.QualityScore,
			business.UpdateCount,
			business.LastUpdatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(businessSheet, cell, value); err != nil {
				return err
			}
		}
	}

	if stats != nil {
		const statsSheet = "Stats"
		if _, err := f.NewSheet(statsSheet); err != nil {
			return fmt.Errorf("failed to create stats sheet: %w", err)
		}
		rows := [][]interface{}{
			{"Total Businesses", stats.TotalBusinesses},
			{"Total Reviews", stats.TotalReviews},
			{"Total Images", stats.TotalImages},
			{"Avg Quality Score", stats.AvgQualityScore},
			{"Fresh Entries (24h)", stats.FreshEntries24h},
		}
		for i, pair := range rows {
			labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
			valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
			if err := f.SetCellValue(statsSheet, labelCell, pair[0]); err != nil {
				return err
			}
			if err := f.SetCellValue(statsSheet, valueCell, pair[1]); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
