// Package csvutil writes spreadsheet-friendly CSV downloads.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
)

// MaxExportRows caps a single export.
const MaxExportRows = 20000

// Start sets the download headers, writes a UTF-8 BOM (Excel needs it to
// detect the encoding), and returns a CRLF writer. Callers must Flush.
func Start(w http.ResponseWriter, filename string) (*csv.Writer, error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw, nil
}

// SafeField neutralizes values a spreadsheet would evaluate as a formula.
func SafeField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
