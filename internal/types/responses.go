package types

// ------------------------------
// Response Types
// ------------------------------

// EnqueueAck represents acknowledgment of an async operation.
type EnqueueAck struct {
	VoiceID string `json:"voiceId"`
	StoryID string `json:"storyId,omitempty"`
	Status  string `json:"status"`
}

// CloneVoiceResponse mirrors the POST /voices response.
type CloneVoiceResponse struct {
	VoiceID string `json:"voice_id"`
}

// ListVoicesResponse mirrors the GET /voices response shape.
type ListVoicesResponse struct {
	Voices []Voice `json:"voices"`
}

// ListStoriesResponse mirrors the GET /stories response shape.
type ListStoriesResponse struct {
	Stories []Story `json:"stories"`
}
