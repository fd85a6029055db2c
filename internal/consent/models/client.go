package models

import "github.com/mssola/useragent"

// Client is the parsed view of a record's User-Agent header, surfaced on
// admin listings and exports. Parsing is best-effort; unknown agents yield
// empty fields.
type Client struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Mobile  bool   `json:"mobile,omitempty"`
}

// ParseClient extracts browser and OS metadata from a raw User-Agent value.
func ParseClient(rawUA string) Client {
	if rawUA == "" {
		return Client{}
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	client := Client{
		Browser: name,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
	}
	if name != "" && version != "" {
		client.Browser = name + " " + version
	}
	return client
}
