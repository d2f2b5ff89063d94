package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/deals/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	c := httpRequestsTotal.WithLabelValues(http.MethodGet, "/deals/{id}", "418")
	before := testutil.ToFloat64(c)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deals/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	require.Equal(t, before+2, testutil.ToFloat64(c))
}

func TestRecordCounters(t *testing.T) {
	conv := leadConversions.WithLabelValues("already_converted")
	before := testutil.ToFloat64(conv)
	RecordConversion("already_converted")
	require.Equal(t, before+1, testutil.ToFloat64(conv))

	deg := scopeDegraded.WithLabelValues("leads")
	before = testutil.ToFloat64(deg)
	RecordScopeDegraded("leads")
	require.Equal(t, before+1, testutil.ToFloat64(deg))
}

func TestHandler_ExposesSeries(t *testing.T) {
	RecordConversion("success")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "salescrm_lead_conversions_total"))
}
