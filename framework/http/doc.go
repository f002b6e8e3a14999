// Package http provides request and response helpers for controllers.
//
// # Request
//
// Request wraps *http.Request:
//
//	req := gohttp.NewRequest(r)
//
//	// Decode and validate a JSON body
//	var payload struct {
//	    Title string `json:"title" validate:"required"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	id    := req.RouteParam("id")      // chi URL param
//	page  := req.Query("page", "1")
//	token := req.BearerToken()
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(note)            // 200 {"data": note}
//	res.Created(note)            // 201 {"data": note}
//	res.NoContent()              // 204
//	res.WriteError(err)          // status chosen by StatusFor
//
// # Errors
//
// StatusFor and WriteError map errors onto statuses:
//
//	*auth.ChallengeError           401 + WWW-Authenticate
//	validator.ValidationErrors     422 + error bag
//	*HTTPError                     its Status
//	anything else                  500
package http
