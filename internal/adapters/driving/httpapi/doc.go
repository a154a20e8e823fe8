// Package httpapi exposes ingestion, retrieval and chat over HTTP.
//
// Routes:
//
//	GET    /health
//	GET    /documents
//	POST   /documents          multipart upload, one result per file
//	GET    /documents/{id}
//	GET    /documents/{id}/chunks
//	DELETE /documents/{id}
//	POST   /search
//	POST   /ask                JSON, or text/event-stream when "stream" is true
//	GET    /chats
//	GET    /stats
//
// Responses wrap their payload in {"data": ...}; failures are {"error": "..."}
// with a status derived from the domain error.
package httpapi
