package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the link API and the redirect route.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Create short link",
		Description:   "Shortens a URL. Shortening an already known URL returns its existing link with 200.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, urlHandler.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/api/links/{code}",
		Summary:     "Get short link",
		Description: "Returns the long URL and view counts of a short link.",
		Tags:        []string{"Links"},
	}, urlHandler.GetLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link-timeline",
		Method:      http.MethodGet,
		Path:        "/api/links/{code}/timeline",
		Summary:     "Get short link timeline",
		Description: "Returns the raw access series of a short link.",
		Tags:        []string{"Links"},
	}, urlHandler.Timeline)

	huma.Register(api, huma.Operation{
		OperationID: "delete-link",
		Method:      http.MethodDelete,
		Path:        "/api/links/{code}",
		Summary:     "Delete short link",
		Tags:        []string{"Links"},
	}, urlHandler.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "search-links",
		Method:      http.MethodPost,
		Path:        "/api/links/search",
		Summary:     "Search short links",
		Description: "Finds links whose URL starts with the query.",
		Tags:        []string{"Links"},
	}, urlHandler.Search)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Redirects to the original URL associated with the short code.",
		Tags:        []string{"URLs"},
	}, urlHandler.RedirectToURL)
}
