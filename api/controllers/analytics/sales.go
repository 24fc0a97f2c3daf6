package analytics

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	internalanalytics "github.com/angelmondragon/storefront-backend/internal/analytics"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Sales returns the admin sales dashboard for the requested period.
func Sales(svc internalanalytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		period, err := enums.ParseSalesPeriod(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("period"))))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid period").WithDetails(map[string]any{
				"field":   "period",
				"allowed": []string{"all", "month", "quarter", "year"},
			}))
			return
		}

		report, err := svc.SalesReport(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
