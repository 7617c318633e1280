package client

// Admin API endpoints, relative to the base URL
const (
	EndpointLogin       = "/api/admin/login"
	EndpointVerify      = "/api/admin/verify"
	EndpointUsers       = "/api/admin/users"
	EndpointBooks       = "/api/admin/books"
	EndpointBooksSearch = "/api/admin/books/search"
	EndpointTags        = "/api/admin/tags"
	EndpointComments    = "/api/admin/comments"
	EndpointStats       = "/api/admin/stats"
)
