package domain

// Stats is an aggregate snapshot for the admin dashboard endpoint.
type Stats struct {
	Users     int `json:"users"`
	Vacations int `json:"vacations"`
	Posts     int `json:"posts"`
	Memories  int `json:"memories"`
	Sessions  int `json:"active_sessions"`
}
