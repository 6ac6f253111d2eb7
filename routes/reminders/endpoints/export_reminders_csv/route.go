package export_reminders_csv

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"randevu/reminders"
	"randevu/state"

	docs "github.com/infinitybotlist/eureka/doclib"
	"github.com/infinitybotlist/eureka/uapi"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

// Export is capped well above the list page size; anything bigger belongs in
// the reporting pipeline, not an API response.
const exportLimit = 5000

var header = []string{
	"id",
	"appointment_id",
	"channel",
	"scheduled_for",
	"status",
	"attempt_count",
	"last_attempted_at",
	"next_retry_at",
	"escalated_at",
	"failure_reason",
	"opened_at",
	"marked_sent_at",
	"marked_sent_by_user_id",
	"created_at",
}

func Docs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Export Reminders CSV",
		Description: "Exports the reminders of a workspace as CSV rows for ops dashboards and reports",
		Params: []docs.Parameter{
			{
				Name:        "wid",
				Description: "Workspace ID",
				Required:    true,
				In:          "path",
				Schema:      docs.IdSchema,
			},
		},
		Resp: "CSV file",
	}
}

func fmtTime(t time.Time, valid bool) string {
	if !valid {
		return ""
	}

	return t.Format(time.RFC3339)
}

func Route(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	wid := chi.URLParam(r, "wid")

	rems, err := state.Reminders.List(d.Context, wid, reminders.Filter{Limit: exportLimit})

	if err != nil {
		state.Logger.Error("Error listing reminders for export", zap.Error(err), zap.String("workspace_id", wid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		state.Logger.Error("Error writing CSV header", zap.Error(err), zap.String("workspace_id", wid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	for _, rem := range rems {
		record := []string{
			rem.ID,
			rem.AppointmentID,
			string(rem.Channel),
			rem.ScheduledFor.Format(time.RFC3339),
			string(rem.Status),
			strconv.Itoa(rem.AttemptCount),
			fmtTime(rem.LastAttemptedAt.Time, rem.LastAttemptedAt.Valid),
			fmtTime(rem.NextRetryAt.Time, rem.NextRetryAt.Valid),
			fmtTime(rem.EscalatedAt.Time, rem.EscalatedAt.Valid),
			rem.FailureReason.String,
			fmtTime(rem.OpenedAt.Time, rem.OpenedAt.Valid),
			fmtTime(rem.MarkedSentAt.Time, rem.MarkedSentAt.Valid),
			rem.MarkedSentBy.String,
			rem.CreatedAt.Format(time.RFC3339),
		}

		if err := w.Write(record); err != nil {
			state.Logger.Error("Error writing CSV record", zap.Error(err), zap.String("workspace_id", wid))
			return uapi.DefaultResponse(http.StatusInternalServerError)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		state.Logger.Error("Error flushing CSV", zap.Error(err), zap.String("workspace_id", wid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	return uapi.HttpResponse{
		Bytes: buf.Bytes(),
		Headers: map[string]string{
			"Content-Type":        "text/csv; charset=utf-8",
			"Content-Disposition": "attachment; filename=\"reminders-" + wid + ".csv\"",
		},
	}
}
