package constants

const (
	ResourceNotFound    = "{\"message\":\"This resource could not be found on this workspace!\",\"error\":true}"
	NotFoundPage        = "{\"message\":\"This endpoint does not exist or has been moved!\",\"error\":true}"
	BadRequest          = "{\"message\":\"The request was malformed or failed validation!\",\"error\":true}"
	Forbidden           = "{\"message\":\"You are not allowed to perform this action on this workspace!\",\"error\":true}"
	Unauthorized        = "{\"message\":\"You are not authorized to do this. Did you forget an API token somewhere?\",\"error\":true}"
	InternalServerError = "{\"message\":\"Something went wrong on our end. Please try again later!\",\"error\":true}"
	MethodNotAllowed    = "{\"message\":\"That method is not allowed for this endpoint!\",\"error\":true}"
	BodyRequired        = "{\"message\":\"This endpoint requires a request body!\",\"error\":true}"
	Success             = "{\"message\":\"Success!\",\"error\":false}"
)
