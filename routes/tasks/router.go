package tasks

import (
	"randevu/routes/tasks/endpoints/run_reminder_task"

	"github.com/go-chi/chi/v5"
	"github.com/infinitybotlist/eureka/uapi"
)

const tagName = "Tasks"

type Router struct{}

func (b Router) Tag() (string, string) {
	return tagName, "These API endpoints let an external scheduler trigger the periodic reminder batch operations"
}

func (b Router) Routes(r *chi.Mux) {
	uapi.Route{
		Pattern: "/tasks/reminders/{op}",
		OpId:    "run_reminder_task",
		Method:  uapi.POST,
		Docs:    run_reminder_task.Docs,
		Handler: run_reminder_task.Route,
	}.Route(r)
}
