package client

// SystemInfo maps the fields fleet tooling reads from /api/system/info.
// Optional readings stay pointer-typed so a missing key is distinguishable
// from zero.
type SystemInfo struct {
	ASICModel         string   `json:"ASICModel"`
	ASICCount         int      `json:"asicCount"`
	SmallCoreCount    int      `json:"smallCoreCount"`
	BoardVersion      string   `json:"boardVersion"`
	Hostname          string   `json:"hostname"`
	MACAddr           string   `json:"macAddr"`
	IPv4              string   `json:"ipv4"`
	Version           string   `json:"version"`
	AxeOSVersion      string   `json:"axeOSVersion"`
	UptimeSeconds     int64    `json:"uptimeSeconds"`
	HashRate          *float64 `json:"hashRate"`
	ExpectedHashrate  *float64 `json:"expectedHashrate"`
	Power             *float64 `json:"power"`
	Temp              *float64 `json:"temp"`
	VRTemp            *float64 `json:"vrTemp"`
	Voltage           *float64 `json:"voltage"`
	NominalVoltage    *int     `json:"nominalVoltage"`
	Current           *int     `json:"current"`
	CoreVoltage       *int     `json:"coreVoltage"`
	CoreVoltageActual *int     `json:"coreVoltageActual"`
	Frequency         *int     `json:"frequency"`
	Fanspeed          *float64 `json:"fanspeed"`
	FanRPM            *int     `json:"fanrpm"`
	AutoFanSpeed      *int     `json:"autofanspeed"`
	TempTarget        *float64 `json:"temptarget"`
	MinFanSpeed       *int     `json:"minFanSpeed"`
	ErrorPercentage   *float64 `json:"errorPercentage"`
	SharesAccepted    *int64   `json:"sharesAccepted"`
	SharesRejected    *int64   `json:"sharesRejected"`
	BestDiff          string   `json:"bestDiff"`
	BestSessionDiff   string   `json:"bestSessionDiff"`

	StratumURL             string `json:"stratumURL"`
	StratumPort            int    `json:"stratumPort"`
	StratumUser            string `json:"stratumUser"`
	FallbackStratumURL     string `json:"fallbackStratumURL"`
	FallbackStratumPort    int    `json:"fallbackStratumPort"`
	FallbackStratumUser    string `json:"fallbackStratumUser"`
	IsUsingFallbackStratum int    `json:"isUsingFallbackStratum"`

	WiFiRSSI     *int `json:"wifiRSSI"`
	WiFiStatus   *int `json:"wifiStatus"`
	ResponseTime *int `json:"responseTime"`
}

// RestartResult is returned by POST /api/system/restart.
type RestartResult struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}

// Health is the /healthz payload of a published miner.
type Health struct {
	Status  string `json:"status"`
	MinerID string `json:"miner_id"`
}
