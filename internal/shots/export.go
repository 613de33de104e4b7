package shots

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"shotlog/internal/advisor"
	"shotlog/internal/metrics"
	"shotlog/internal/models"
	"shotlog/internal/tracing"
)

// utf8BOM makes spreadsheet apps detect the encoding of æ, ø and å.
const utf8BOM = "\ufeff"

// ExportHeader is the first CSV row.
var ExportHeader = []string{
	"Date", "Brand", "Bean", "Process", "Type", "Grind",
	"Dose (g)", "Yield (g)", "Time (s)",
	"Target ratio", "Target yield (g)", "Actual ratio", "Advice",
}

// ExportFilename names the download for the given day.
func ExportFilename(day time.Time) string {
	return "espresso-log-" + day.Format(models.DateLayout) + ".csv"
}

// ExportRow renders one entry. bean may be nil if it has gone missing.
func ExportRow(e *models.ShotEntry, bean *models.Bean) []string {
	var brand, name, process string
	if bean != nil {
		brand, name, process = bean.Brand, bean.Name, bean.DisplayProcess()
	}

	targetYield := ""
	if ty, ok := e.TargetYieldG.Get(); ok {
		targetYield = strconv.Itoa(advisor.RoundGrams(ty))
	}
	actualRatio := ""
	if r, ok := e.ActualRatio.Get(); ok {
		actualRatio = strconv.FormatFloat(r, 'f', 2, 64)
	}

	return []string{
		e.Date,
		brand,
		name,
		process,
		string(e.ShotType),
		e.Grind,
		e.DoseG.String(),
		e.YieldG.String(),
		e.TimeS.String(),
		strconv.FormatFloat(e.TargetRatio, 'f', -1, 64),
		targetYield,
		actualRatio,
		e.AdviceText,
	}
}

// WriteCSV writes entries as CSV with a UTF-8 byte order mark.
func WriteCSV(w io.Writer, entries []*models.ShotEntry, beans map[string]*models.Bean) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(ExportRow(e, beans[e.BeanID])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the user's log, newest first, optionally for one bean.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, userID, beanID string) error {
	ctx, span := tracing.ShotSpan(ctx, "export", userID, beanID)
	defer span.End()

	entries, err := s.Log(ctx, userID, beanID)
	if err != nil {
		tracing.EndWithError(span, err)
		return fmt.Errorf("export: %w", err)
	}

	list, err := s.store.ListBeans(ctx, userID)
	if err != nil {
		tracing.EndWithError(span, err)
		return fmt.Errorf("export: %w", err)
	}
	beans := make(map[string]*models.Bean, len(list))
	for _, b := range list {
		beans[b.ID] = b
	}

	if err := WriteCSV(w, entries, beans); err != nil {
		tracing.EndWithError(span, err)
		return fmt.Errorf("export: %w", err)
	}

	metrics.ExportsTotal.Inc()
	return nil
}
