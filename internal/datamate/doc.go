// Package datamate provides an HTTP client for the dataset pipeline API.
//
// # Overview
//
// The client wraps the paged list endpoints behind the console: datasets,
// annotation tasks, cleansing tasks, the operator marketplace and knowledge
// bases. Each list method has the shape of a query.FetchFunc, so a method
// value can be handed straight to a query.Controller:
//
//	client, err := datamate.NewClient(cfg.APIURL, cfg.RequestTimeout)
//	if err != nil {
//		return err
//	}
//	ctrl := query.New(client.ListDatasets, query.Options[datamate.Dataset, datamate.Dataset]{})
//
// # API Endpoints
//
//   - GET /api/data-management/datasets
//   - GET /api/data-management/datasets/{id}
//   - GET /api/annotation/tasks
//   - GET /api/cleaning/tasks
//   - GET /api/operators
//   - GET /api/knowledge-base
//
// List endpoints take keywords, a zero-indexed page, size and one scalar value
// per facet, and answer {"content": [...], "totalElements": n}.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Set Accept: application/json and User-Agent: datamate/0.1
//   - Carry a fresh X-Request-ID so server logs can be correlated
//   - Time out after the configured request timeout (10s by default)
//
// # Error Handling
//
// Transport failures are wrapped as "execute request", malformed bodies as
// "decode response". Any status of 400 or above becomes an *APIError carrying
// the path, the status and the server's message when the body has one; use
// errors.As or IsNotFound to inspect it.
package datamate
