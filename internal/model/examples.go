package model

// Example is a ready-made query with the risk level it usually lands in
type Example struct {
	Topic   string    `json:"topic"`
	Country string    `json:"country"`
	Hint    RiskLevel `json:"hint"`
}

// Examples returns the sample queries shown to new users
func Examples() []Example {
	return []Example{
		{Topic: "malaria prevention", Country: "Nigeria", Hint: RiskHigh},
		{Topic: "climate change adaptation", Country: "Senegal", Hint: RiskHigh},
		{Topic: "biometric voter registration", Country: "Ghana", Hint: RiskSevere},
		{Topic: "machine learning", Country: "United States", Hint: RiskLow},
		{Topic: "maternal health", Country: "Rwanda", Hint: RiskHigh},
		{Topic: "quantum computing", Country: "Germany", Hint: RiskModerate},
	}
}
