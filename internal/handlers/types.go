package handlers

import (
	"time"

	"github.com/serroba/shortlink/internal/shortener"
)

// LinkBody describes a short link.
type LinkBody struct {
	Code      string          `doc:"The short code"                         example:"b"                                  json:"code"`
	Short     string          `doc:"The full short URL"                     example:"http://localhost:8888/b"            json:"short"`
	Long      string          `doc:"The canonical long URL"                 example:"https://example.com/very/long/path" json:"long"`
	Views     shortener.Views `doc:"Access counts for the last day, week and all time" json:"views"`
	CreatedAt *time.Time      `doc:"Creation time"                          json:"createdAt,omitempty"`
	ExpiresAt *time.Time      `doc:"Expiry time, absent for permanent links" json:"expiresAt,omitempty"`
}

// CreateLinkRequest is the request body for creating a short link.
type CreateLinkRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"url"`
		TTL int    `doc:"Seconds until the link expires, 0 uses the server default" json:"ttl,omitempty" minimum:"0"`
	}
}

// CreateLinkResponse is 201 for a new link and 200 when the URL was already shortened.
type CreateLinkResponse struct {
	Status   int
	Location string `doc:"The short URL location" header:"Location"`
	Body     LinkBody
}

// LinkRequest addresses a single link.
type LinkRequest struct {
	Code string `doc:"The short code" example:"b" path:"code"`
}

// LinkResponse is the response for a link lookup.
type LinkResponse struct {
	Body LinkBody
}

// TimelineRequest selects a window of a link's access series.
type TimelineRequest struct {
	Code  string `doc:"The short code"                          example:"b" path:"code"`
	Start int64  `doc:"Window start in unix milliseconds"       minimum:"0" query:"start"`
	End   int64  `doc:"Window end in unix milliseconds, 0 is now" minimum:"0" query:"end"`
}

// TimelineResponse is the raw access series of a link.
type TimelineResponse struct {
	Body struct {
		Code       string             `json:"code"`
		Long       string             `json:"long"`
		Timeseries []shortener.Sample `json:"timeseries"`
	}
}

// DeleteLinkResponse confirms a deletion.
type DeleteLinkResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// SearchRequest is the request body for searching links.
type SearchRequest struct {
	Body struct {
		Query string `doc:"URL prefix, optionally starting with a scheme" example:"https://goo" json:"query"`
	}
}

// SearchResult is one search hit.
type SearchResult struct {
	Short string `json:"short"`
	Long  string `json:"long"`
}

// SearchResponse lists matching links.
type SearchResponse struct {
	Body struct {
		Results []SearchResult `json:"results"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"b" path:"code"`
}

// RedirectResponse sends the client to the long URL.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}
