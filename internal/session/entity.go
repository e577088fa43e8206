package session

import "time"

// Session groups pipeline runs for one caller, mirroring the hosting
// platform's session concept.
type Session struct {
	ID        string            `yaml:"id"`
	AppName   string            `yaml:"app_name"`
	UserID    string            `yaml:"user_id"`
	Metadata  map[string]string `yaml:"metadata"`
	CreatedAt time.Time         `yaml:"created_at"`
	UpdatedAt time.Time         `yaml:"updated_at"`
}
