package models

// Issue is an issue tracker ticket as seen by the project validator.
type Issue struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Labels []string `json:"labels"`
}

// StatusRule lists the labels an issue in Status must carry at least one of.
type StatusRule struct {
	Status string   `json:"status" toml:"status" yaml:"status"`
	Labels []string `json:"labels" toml:"labels" yaml:"labels"`
}
