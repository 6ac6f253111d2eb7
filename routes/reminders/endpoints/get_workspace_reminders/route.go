package get_workspace_reminders

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"randevu/reminders"
	"randevu/state"
	"randevu/types"
	"randevu/utils"

	docs "github.com/infinitybotlist/eureka/doclib"
	"github.com/infinitybotlist/eureka/uapi"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
)

const perPage = 50

func Docs() *docs.Doc {
	return &docs.Doc{
		Summary:     "Get Workspace Reminders",
		Description: "Lists the appointment reminders of a workspace, filtered by status, trainer, student and scheduled date range",
		Params: []docs.Parameter{
			{
				Name:        "wid",
				Description: "Workspace ID",
				Required:    true,
				In:          "path",
				Schema:      docs.IdSchema,
			},
			{
				Name:        "status",
				Description: "Comma-separated list of reminder statuses to include",
				Required:    false,
				In:          "query",
				Schema:      docs.IdSchema,
			},
			{
				Name:        "trainer_id",
				Description: "Only reminders of appointments with this trainer",
				Required:    false,
				In:          "query",
				Schema:      docs.IdSchema,
			},
			{
				Name:        "student_id",
				Description: "Only reminders of appointments with this student",
				Required:    false,
				In:          "query",
				Schema:      docs.IdSchema,
			},
			{
				Name:        "from",
				Description: "RFC3339 lower bound on scheduled_for",
				Required:    false,
				In:          "query",
				Schema:      docs.IdSchema,
			},
			{
				Name:        "to",
				Description: "RFC3339 upper bound on scheduled_for",
				Required:    false,
				In:          "query",
				Schema:      docs.IdSchema,
			},
			{
				Name:        "page",
				Description: "Page number, 1-based",
				Required:    false,
				In:          "query",
				Schema:      docs.IdSchema,
			},
		},
		Resp: types.PagedResult[types.ReminderList]{},
	}
}

func parseFilter(r *http.Request) (reminders.Filter, uint64, bool) {
	var f reminders.Filter

	if s := r.URL.Query().Get("status"); s != "" {
		for _, v := range strings.Split(s, ",") {
			f.Statuses = append(f.Statuses, types.ReminderStatus(strings.TrimSpace(v)))
		}
	}

	f.TrainerID = r.URL.Query().Get("trainer_id")
	f.StudentID = r.URL.Query().Get("student_id")

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)

		if err != nil {
			return f, 0, false
		}

		f.From = t
	}

	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)

		if err != nil {
			return f, 0, false
		}

		f.To = t
	}

	page := uint64(1)

	if s := r.URL.Query().Get("page"); s != "" {
		p, err := strconv.ParseUint(s, 10, 64)

		if err != nil || p == 0 {
			return f, 0, false
		}

		page = p
	}

	f.Limit = perPage
	f.Offset = (page - 1) * perPage

	return f, page, true
}

func Route(d uapi.RouteData, r *http.Request) uapi.HttpResponse {
	wid := chi.URLParam(r, "wid")

	f, page, ok := parseFilter(r)

	if !ok {
		return uapi.DefaultResponse(http.StatusBadRequest)
	}

	// Check cache, this is how we can avoid hefty ratelimits
	cache := state.Redis.Get(d.Context, "reminders-"+wid+"-"+r.URL.RawQuery).Val()
	if cache != "" {
		return uapi.HttpResponse{
			Data: cache,
			Headers: map[string]string{
				"X-Randevu-Cached": "true",
			},
		}
	}

	rems, err := state.Reminders.List(d.Context, wid, f)

	if err != nil {
		state.Logger.Error("Error listing reminders", zap.Error(err), zap.String("workspace_id", wid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	count, err := state.Reminders.Count(d.Context, wid, f)

	if err != nil {
		state.Logger.Error("Error counting reminders", zap.Error(err), zap.String("workspace_id", wid))
		return uapi.DefaultResponse(http.StatusInternalServerError)
	}

	// Carry the filter params into the prev/next links, minus page itself
	var query []string

	for _, k := range []string{"status", "trainer_id", "student_id", "from", "to"} {
		if v := r.URL.Query().Get(k); v != "" {
			query = append(query, k+"="+url.QueryEscape(v))
		}
	}

	data := utils.CreatePage(utils.CreatePagedResult[types.ReminderList]{
		Count:   count,
		Page:    page,
		PerPage: perPage,
		Path:    "/workspaces/" + wid + "/reminders",
		Query:   query,
		Results: types.ReminderList{Reminders: rems},
	})

	return uapi.HttpResponse{
		Json:      data,
		CacheKey:  "reminders-" + wid + "-" + r.URL.RawQuery,
		CacheTime: 30 * time.Second,
	}
}
