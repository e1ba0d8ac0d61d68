package coach

// InterviewRequest is the body POSTed to the interview endpoint
type InterviewRequest struct {
	Message string `json:"message"`
}

// InterviewResponse is the body returned by the interview endpoint
type InterviewResponse struct {
	Reply string `json:"reply"`
}

// wireResponse detects a missing reply field
type wireResponse struct {
	Reply *string `json:"reply"`
}
