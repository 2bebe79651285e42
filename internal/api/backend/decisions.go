package backend

import (
	"net/http"

	"github.com/skybi/compliance-console/internal/api/validation"
)

// EndpointGetDecisions handles the 'GET /decisions/' endpoint
func (service *Service) EndpointGetDecisions(writer http.ResponseWriter, request *http.Request) {
	skip, limit, issues := validation.Pagination(request)
	if len(issues) > 0 {
		service.writer.WriteIssues(writer, http.StatusUnprocessableEntity, issues...)
		return
	}

	decisions, err := service.Storage.Decisions().Get(request.Context(), skip, limit)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, decisions)
}

// EndpointGetWorkflowDecisions handles the 'GET /decisions/{workflow_id}' endpoint.
// An unknown workflow simply has no decisions.
func (service *Service) EndpointGetWorkflowDecisions(writer http.ResponseWriter, request *http.Request) {
	decisions, err := service.Storage.Decisions().GetByWorkflowID(request.Context(), urlParam(request, "workflow_id"))
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	service.writer.WriteJSON(writer, decisions)
}
