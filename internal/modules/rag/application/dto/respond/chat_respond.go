package respond

type SourceItem struct {
	Text     string  `json:"text"`
	Score    float32 `json:"score"`
	Filename string  `json:"filename"`
}

type ChatRespond struct {
	Answer  string       `json:"answer"`
	Sources []SourceItem `json:"sources"`
}
