package domain

// StatusResponse is returned by the liveness endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// ListResponse wraps a collection.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}
