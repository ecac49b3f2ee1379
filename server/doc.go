// Package server exposes the study guide service over HTTP.
//
// Routes:
//
//	POST /api/uploads                         multipart "files"; returns the upload ID and chunk count
//	GET  /api/uploads/{id}/generate?subject=  websocket streaming progress, then a done message
//	GET  /api/uploads/{id}/guide?subject=     downloads the generated guide as a text file
//	GET  /healthz                             liveness
package server
