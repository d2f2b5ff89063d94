// Package export streams a scoped record set as a CSV download. Handlers
// build the filter through the record policy exactly as their list does
// and hand the cursor to a Table.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/system/csvutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var errCap = errors.New("export row cap reached")

// FindOptions sorts by sortField then _id and fetches one row past the cap.
func FindOptions(sortField string) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(csvutil.MaxExportRows + 1)
}

// Table describes one CSV download. Name is the file prefix and the
// list URL under "/".
type Table[T any] struct {
	Name   string
	Header []string
	Row    func(T) []string
}

// Serve writes every record stream yields. The download headers go out
// with the first row, so a query that fails before any row can still
// answer with a JSON error. It returns the number of rows written.
func (t Table[T]) Serve(w http.ResponseWriter, r *http.Request, log *zap.Logger, errLog *uierrors.ErrorLogger, stream func(fn func(T) error) error) int {
	filename := fmt.Sprintf("%s_%s.csv", t.Name, time.Now().UTC().Format("20060102"))
	begin := func() (*csv.Writer, error) {
		cw, err := csvutil.Start(w, filename)
		if err != nil {
			return nil, err
		}
		return cw, cw.Write(t.Header)
	}

	var cw *csv.Writer
	rows := 0
	err := stream(func(rec T) error {
		if cw == nil {
			var err error
			if cw, err = begin(); err != nil {
				return err
			}
		}
		if rows >= csvutil.MaxExportRows {
			return errCap
		}
		rows++
		return cw.Write(t.Row(rec))
	})

	if cw == nil {
		if err != nil {
			errLog.LogServerError(w, r, "export "+t.Name+" failed", err, "A database error occurred.", "/"+t.Name)
			return 0
		}
		if cw, err = begin(); err != nil {
			log.Error("CSV write failed (header)", zap.String("export", t.Name), zap.Error(err))
			return 0
		}
	}
	cw.Flush()

	switch {
	case errors.Is(err, errCap):
		log.Warn("CSV export truncated", zap.String("export", t.Name), zap.Int("rows", rows))
	case err != nil:
		log.Error("CSV export aborted", zap.String("export", t.Name), zap.Error(err), zap.Int("rows", rows))
		return rows
	}
	if err := cw.Error(); err != nil {
		log.Error("CSV write failed", zap.String("export", t.Name), zap.Error(err))
		return rows
	}
	log.Info("CSV exported", zap.String("export", t.Name), zap.Int("rows", rows))
	return rows
}

// Date formats an optional timestamp as YYYY-MM-DD.
func Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// Stamp formats an optional timestamp as RFC 3339.
func Stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Money renders minor units as a decimal amount ("1250.50").
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
