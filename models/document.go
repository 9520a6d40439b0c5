package models

type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

func (d Document) Program() string {
	return d.Metadata["program"]
}
