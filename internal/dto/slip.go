package dto

import "github.com/campusops/admissions-api/pkg/response"

// Slip actions returned by the print endpoint.
const (
	SlipActionOpenExisting = "open_existing"
	SlipActionOpenNew      = "open_new"
)

// PrintDocumentResponse carries the admission slip link. Action tells
// the console whether the slip came from cache or was freshly rendered.
type PrintDocumentResponse struct {
	response.Base
	DocumentURL string `json:"documentUrl"`
	Action      string `json:"action"`
}
