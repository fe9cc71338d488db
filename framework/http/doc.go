// Package http provides JSON response helpers for hosted handlers.
//
//	res := gohttp.NewResponse(w)
//
//	res.Success(v)                                   // 200 {"data": v}
//	res.Error(http.StatusConflict, "already running") // {"message": ...}
//	res.Failure(http.StatusServiceUnavailable, "CONFIG_LOAD", err.Error())
//	res.NotFound()                                   // 404 {"message": "Not found."}
package http
