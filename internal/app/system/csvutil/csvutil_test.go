package csvutil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeField(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"Acme":          "Acme",
		"=SUM(A1:A9)":   "'=SUM(A1:A9)",
		"+63 917 0000":  "'+63 917 0000",
		"-1":            "'-1",
		"@cmd":          "'@cmd",
		"rita@acme.com": "rita@acme.com",
	}
	for in, want := range tests {
		require.Equal(t, want, SafeField(in), in)
	}
}

func TestStart(t *testing.T) {
	rec := httptest.NewRecorder()
	cw, err := Start(rec, "leads 2025.csv")
	require.NoError(t, err)
	require.NoError(t, cw.Write([]string{"a", "b"}))
	cw.Flush()

	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "leads%202025.csv")
	require.True(t, strings.HasPrefix(rec.Body.String(), "\xEF\xBB\xBFa,b\r\n"))
}
