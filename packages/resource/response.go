package resource

import (
	"encoding/json"
	"strings"
)

// reply captures what came back over the wire before classification.
type reply struct {
	statusCode int
	headers    map[string]string
	body       []byte
}

func (r *reply) header(key string) string {
	for k, v := range r.headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *reply) contentType() string {
	return r.header("Content-Type")
}

func (r *reply) isJSON() bool {
	return strings.Contains(r.contentType(), "application/json")
}

// isSuccess covers 200 through 300 inclusive.
func (r *reply) isSuccess() bool {
	return r.statusCode >= 200 && r.statusCode <= 300
}

func (r *reply) bodyString() string {
	return string(r.body)
}

func (r *reply) json() (map[string]any, error) {
	var result map[string]any
	if err := json.Unmarshal(r.body, &result); err != nil {
		return nil, err
	}
	return result, nil
}
