package ragclient

// LoadRequest is the body of POST /load/.
type LoadRequest struct {
	URL string `json:"url"`
}

// LoadResponse is the success body of POST /load/.
type LoadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// QueryRequest is the body of POST /query/.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the success body of POST /query/.
type QueryResponse struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

// ClearResponse is the success body of POST /clear/.
type ClearResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

