package domain

// MonitoringArea is the start/end location pair configured for an account.
type MonitoringArea struct {
	StartArea string `json:"startArea"`
	EndArea   string `json:"endArea"`
	User      *AreaOwner `json:"user,omitempty"`
}

// AreaOwner is the account summary the backend embeds in a monitoring area.
type AreaOwner struct {
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
}

// ClimateData is the latest telemetry for a monitoring area.
type ClimateData struct {
	Temperature   string `json:"temperature"`
	Humidity      string `json:"humidity"`
	Precipitation string `json:"precipitation"`
	WindSpeed     string `json:"windSpeed"`
	Status        string `json:"status"`
	AIAnalysis    string `json:"aiAnalysis"`
}

// HistoricalPoint is one row of the trend table.
type HistoricalPoint struct {
	Date string  `json:"date"`
	Temp float64 `json:"temp"`
	Risk string  `json:"risk"`
}

// Dashboard is the monitoring view returned by the backend.
type Dashboard struct {
	MonitoringArea MonitoringArea    `json:"monitoringArea"`
	ClimateData    ClimateData       `json:"climateData"`
	HistoricalData []HistoricalPoint `json:"historicalData,omitempty"`
}

// Assessment is a risk assessment computed by the backend.
// Scores range from 0 to 100.
type Assessment struct {
	ID            string   `json:"id,omitempty"`
	Location      string   `json:"location,omitempty"`
	PropertyValue float64  `json:"propertyValue,omitempty"`
	RiskScore     float64  `json:"riskScore"`
	HazardScore   float64  `json:"hazardScore"`
	ExposureScore *float64 `json:"exposureScore,omitempty"`
	AIAnalysis    string   `json:"aiAnalysis"`
}
