// Binds onto eureka uapi
package api

import (
	"net/http"
	"strings"

	"randevu/constants"
	"randevu/state"
	"randevu/types"

	"github.com/go-chi/chi/v5"
	"github.com/infinitybotlist/eureka/uapi"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

const (
	// A staff user of a workspace (trainer/operator), authenticated by a
	// user API token
	TargetTypeUser = "user"
	// The workspace itself, authenticated by its service token
	TargetTypeWorkspace = "workspace"
)

// A API Router, not to be confused with chi's Router
type APIRouter interface {
	Routes(r *chi.Mux)
	Tag() (string, string)
}

// Stores the current doc tag
var CurrentTag string

type DefaultResponder struct{}

func (d DefaultResponder) New(err string, ctx map[string]string) any {
	return types.ApiError{
		Message: err,
		Context: ctx,
	}
}

// Authorizes a request. Both token kinds resolve to a workspace; when the
// route carries a {wid} URL variable it must match that workspace, which is
// what keeps every handler tenant-scoped.
func Authorize(r uapi.Route, req *http.Request) (uapi.AuthData, uapi.HttpResponse, bool) {
	authHeader := req.Header.Get("Authorization")

	if len(r.Auth) > 0 && authHeader == "" && !r.AuthOptional {
		return uapi.AuthData{}, uapi.DefaultResponse(http.StatusUnauthorized), false
	}

	authData := uapi.AuthData{}

	for _, auth := range r.Auth {
		if authData.Authorized {
			break
		}

		if authHeader == "" {
			continue
		}

		var workspaceID string

		switch auth.Type {
		case TargetTypeUser:
			var id pgtype.Text
			var wid pgtype.Text

			err := state.Pool.QueryRow(state.Context, "SELECT user_id, workspace_id FROM users WHERE api_token = $1", strings.Replace(authHeader, "User ", "", 1)).Scan(&id, &wid)

			if err != nil {
				continue
			}

			if !id.Valid || !wid.Valid {
				continue
			}

			authData = uapi.AuthData{
				TargetType: TargetTypeUser,
				ID:         id.String,
				Authorized: true,
			}
			workspaceID = wid.String
		case TargetTypeWorkspace:
			var id pgtype.Text

			err := state.Pool.QueryRow(state.Context, "SELECT id FROM workspaces WHERE api_token = $1", strings.Replace(authHeader, "Workspace ", "", 1)).Scan(&id)

			if err != nil {
				continue
			}

			if !id.Valid {
				continue
			}

			authData = uapi.AuthData{
				TargetType: TargetTypeWorkspace,
				ID:         id.String,
				Authorized: true,
			}
			workspaceID = id.String
		}

		// The {wid} URL variable must belong to the token's workspace. A
		// mismatch clears auth instead of erroring so other token kinds can
		// still match, and a cross-tenant probe ends as a plain 401.
		if auth.URLVar != "" && authData.Authorized {
			gotWid := chi.URLParam(req, auth.URLVar)

			if gotWid != workspaceID {
				state.Logger.Info("URL workspace does not match token workspace", zap.String("urlVar", auth.URLVar))
				authData = uapi.AuthData{}
			}
		}
	}

	if len(r.Auth) > 0 && !authData.Authorized && !r.AuthOptional {
		return uapi.AuthData{}, uapi.DefaultResponse(http.StatusUnauthorized), false
	}

	return authData, uapi.HttpResponse{}, true
}

func Setup() {
	uapi.SetupState(uapi.UAPIState{
		Logger:    state.Logger.Desugar(),
		Authorize: Authorize,
		AuthTypeMap: map[string]string{
			TargetTypeUser:      "user",
			TargetTypeWorkspace: "workspace",
		},
		Redis:   state.Redis,
		Context: state.Context,
		Constants: &uapi.UAPIConstants{
			ResourceNotFound:    constants.ResourceNotFound,
			BadRequest:          constants.BadRequest,
			Forbidden:           constants.Forbidden,
			Unauthorized:        constants.Unauthorized,
			InternalServerError: constants.InternalServerError,
			MethodNotAllowed:    constants.MethodNotAllowed,
			BodyRequired:        constants.BodyRequired,
		},
		DefaultResponder: DefaultResponder{},
	})
}
