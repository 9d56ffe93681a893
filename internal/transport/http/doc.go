// Package http implements the HTTP handlers of the CAMELS rating service.
// Handlers only parse requests, call a service and render the response;
// rating logic lives in the services and camels packages.
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/health/stats
//	GET  /api/version
//	GET  /api/camels/scheme
//	GET  /api/camels/variables
//	GET  /api/camels/grades
//	POST /api/camels/ratings           JSON observations
//	POST /api/camels/ratings/upload    multipart workbook or CSV in "file"
//	POST /api/camels/sheets/ratings    rate the configured spreadsheet
//	POST /api/camels/benchmark         JSON observations, date and method
//	POST /api/camels/profile           JSON observations
//
// The run endpoints accept ?export=csv|json|xlsx|summary|all to also write
// the result below the reports directory; the written paths are returned in
// "files". Upload and sheet runs take ?backfill_lags=true.
//
// # Handler Structure
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    var req api.SomeRequest
//	    if err := h.validator.Decode(r, &req); err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//	    result, err := h.service.DoSomething(r.Context(), req)
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//	    render.JSON(w, r, result)
//	}
//
// # Error Handling
//
// All errors are rendered as RFC 7807 problem details:
//
//	{
//	    "type": "/errors/camels/invalid-input",
//	    "title": "Invalid Input",
//	    "status": 422,
//	    "detail": "validate inputs: invalid input: row 3 institution: institution name is blank",
//	    "instance": "/api/camels/ratings"
//	}
//
// # Testing
//
// Handlers are tested with httptest against a mocked RatingServiceInterface
// and against the real services for the end-to-end paths.
package http
