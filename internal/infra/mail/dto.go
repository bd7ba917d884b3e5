package mail

type NewLeadAlertData struct {
	LeadID   string
	Name     string
	Email    string
	Company  string
	Website  string
	Problem  string
	AdminURL string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
	AdminURL string

	dialer dialer
}
