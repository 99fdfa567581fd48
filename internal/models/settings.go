package models

// SchoolStats are the headline numbers shown on the landing page.
type SchoolStats struct {
	Graduates   string `json:"graduates"`
	Experience  string `json:"experience"`
	Teachers    string `json:"teachers"`
	SuccessRate string `json:"success_rate"`
}

// Advantage is one selling point of the school.
type Advantage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SchoolSettings is the flat site-content record edited by the administrator.
type SchoolSettings struct {
	Name        string      `json:"name"`
	Subtitle    string      `json:"subtitle"`
	Description string      `json:"description"`
	Mission     string      `json:"mission"`
	Stats       SchoolStats `json:"stats"`
	Advantages  []Advantage `json:"advantages"`
}
