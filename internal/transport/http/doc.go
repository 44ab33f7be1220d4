// Package http implements the HTTP handlers of the SheetPulse dashboard.
// Handlers stay thin: they parse and validate the request, call a service and
// format the response.
//
// # Routes
//
//	GET  /                                   dashboard page
//	GET  /api/workbook                       loaded workbook
//	POST /api/workbook                       upload a workbook (multipart "file")
//	GET  /api/workbooks                      workbooks stored in the data directory
//	POST /api/workbooks/{name}               load a stored workbook
//	GET  /api/sheets                         sheet names
//	GET  /api/sheets/{sheet}/primary         primary labels
//	GET  /api/sheets/{sheet}/secondary       secondary labels (?primary=)
//	GET  /api/sheets/{sheet}/columns         columns (?primary=&secondary=)
//	GET  /api/sheets/{sheet}/chart           chart (?column=&kind=&window=&format=)
//	POST /api/exports                        build a slide deck
//	GET  /api/exports/{id}                   download a deck
//
// Successful JSON responses use the envelope
//
//	{"status": "success", "data": ..., "count": n}
//
// # Error Handling
//
// Every error goes through errors.ErrorHandler and is written as RFC 7807
// problem details:
//
//	{
//	    "type": "/errors/workbook/not-loaded",
//	    "title": "Conflict",
//	    "status": 409,
//	    "detail": "no workbook is loaded",
//	    "instance": "/api/sheets",
//	    "error_code": "NO_WORKBOOK"
//	}
package http
